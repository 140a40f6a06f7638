package entitlement

import "errors"

var (
	ErrNotFound     = errors.New("entitlement: subscription not found")
	ErrInvalidInput = errors.New("entitlement: invalid input")
	ErrStoreFailure = errors.New("entitlement: store failure")
)
