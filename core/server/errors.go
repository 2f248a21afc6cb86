package server

import "errors"

// ErrServerAlreadyRunning is returned by Start when called on a Server
// that has already been started.
var ErrServerAlreadyRunning = errors.New("server is already running")
