package eventstream

import "errors"

// ErrNilReplyEvent indicates a nil reply event payload was provided to a publisher.
var ErrNilReplyEvent = errors.New("nil reply event")
