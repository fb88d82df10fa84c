package wire

import "errors"

// ErrWireError is a sentinel for malformed or short frames. Wrap it with
// fmt.Errorf("...: %w", ErrWireError) to add call-site context.
var ErrWireError = errors.New("wire protocol error")
