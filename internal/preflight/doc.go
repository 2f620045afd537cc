// Package preflight validates an output job before the encoder starts.
//
// RunAll checks that the output directory exists and is writable, that every
// temporary file can be created and exclusively locked, that no output or
// temp path is currently held open by the host application's process tree,
// and that the encoder binaries are installed. FirstBlocking turns the results
// into the single error an encode pipeline acts on; an open-file conflict
// wraps ErrOutputOpen.
package preflight
