package service

import "errors"

var (
	ErrExecutorClosed = errors.New("background executor is closed")
	ErrPanic          = errors.New("sync panicked")

	ErrRemoteSetup         = errors.New("remote folder setup failed")
	ErrRegistryUnavailable = errors.New("device registry unavailable")
	ErrRemoteList          = errors.New("listing remote records failed")
	ErrLocalRead           = errors.New("local read failed")
	ErrDeviceIdentity      = errors.New("device identity unavailable")

	ErrInvalidRecord = errors.New("invalid record")
)
