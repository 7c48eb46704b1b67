package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrUnknownGroup    = errors.New("unknown strategy group")
	ErrLockHeld        = errors.New("lock already held")
	ErrRateLimited     = errors.New("rate limited")
	ErrWSDisconnect    = errors.New("websocket disconnected")
	ErrContextDone     = errors.New("context cancelled")
)
