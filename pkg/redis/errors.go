package redis

import "errors"

var (
	ErrMissingURL  = errors.New("redis: connection url is not set")
	ErrInvalidURL  = errors.New("redis: invalid connection url")
	ErrNotReady    = errors.New("redis: server did not answer ping in time")
	ErrUnreachable = errors.New("redis: ping failed")
)
