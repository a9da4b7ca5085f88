package errs

import "errors"

// ErrNotFound referenced record does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownEvent event type is not handled by the receiver.
var ErrUnknownEvent = errors.New("unknown event type")

// ErrAsyncDisabled async writes were requested but no queue is configured.
var ErrAsyncDisabled = errors.New("async writes are not configured")
