package connection

import "fmt"

// ConnectError is returned when the link to the data store cannot be
// established. Target never includes credentials.
type ConnectError struct {
	Target string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Target, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// QueryError is returned when the store rejects or fails a bound statement.
// SQL is the statement as written, before placeholder rewriting.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
