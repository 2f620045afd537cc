package openfiles

// NativeOptions tunes the platform System.
type NativeOptions struct {
	// HandleTableAttempts bounds how many times the handle-table fetch is
	// retried after the table outgrows the buffer.
	HandleTableAttempts int
	// HandleTableSlack is added to the reported table size on each attempt.
	// Zero or less selects 16 KiB.
	HandleTableSlack int
}

const (
	defaultHandleTableAttempts = 8
	defaultHandleTableSlack    = 16 * 1024
)

func (o NativeOptions) withDefaults() NativeOptions {
	if o.HandleTableAttempts <= 0 {
		o.HandleTableAttempts = defaultHandleTableAttempts
	}
	if o.HandleTableSlack <= 0 {
		o.HandleTableSlack = defaultHandleTableSlack
	}
	return o
}
