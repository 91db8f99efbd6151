package models

import "errors"

var (
	// ErrSourceUnavailable marks a tool whose data could not be retrieved or understood.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedRecord marks a transaction row that was dropped during normalization.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNoSession is returned when the Fi server asks for a login.
	// It degrades the affected tool like ErrSourceUnavailable.
	ErrNoSession = errors.New("no authenticated session")

	// ErrSuperseded is returned by a refresh whose snapshot was discarded
	// because a newer refresh had started.
	ErrSuperseded = errors.New("refresh superseded")

	// ErrNoSnapshot is returned when no dashboard has been published yet.
	ErrNoSnapshot = errors.New("no dashboard snapshot available")
)
