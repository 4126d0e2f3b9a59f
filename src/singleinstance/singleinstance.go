package singleinstance

import (
	"context"
	"errors"
)

// ErrBusy is returned to a delegating client when the resident is already capturing.
var ErrBusy = errors.New("resident busy")

// Action names the work a client asks the resident to perform.
type Action string

const (
	// ActionCapture opens the interactive capture overlay in the resident.
	ActionCapture Action = "CAPTURE"
)

// Server owns the loopback endpoint of the resident process.
type Server interface {
	// Start binds the first port of the configured range; an occupied port means
	// another resident owns it.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request, or the ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one delegated request awaiting its answer.
type Conn interface {
	Request() Request
	RespondSuccess() error
	RespondError(msg string) error
	Close() error
}

type Request struct {
	Action Action
}

// Client hands a request to a running resident.
type Client interface {
	// TryCapture asks a resident to open the capture overlay. If no resident
	// answers, it returns delegated=false and a nil error.
	TryCapture(ctx context.Context) (delegated bool, err error)
}

func NewServer() Server { return newTCPServer() }

func NewClient() Client { return newTCPClient() }
