package preflight

// checkWritable is stat-only on Windows; ACL evaluation is left to the
// temp-file probe, which actually creates a file.
func checkWritable(string) error {
	return nil
}
