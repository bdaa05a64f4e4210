package client

import "errors"

var (
	// ErrDaemonNotRunning means nothing listens on the status socket: no run is
	// active, or it was started without a status API.
	ErrDaemonNotRunning = errors.New("no run is serving the status socket")

	// ErrPermissionDenied means the status socket exists but is not accessible
	// to the current user.
	ErrPermissionDenied = errors.New("permission denied on status socket")

	// ErrNotFound is returned for a 404 from the status API.
	ErrNotFound = errors.New("404 not found")
)
