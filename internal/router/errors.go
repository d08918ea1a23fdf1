package router

import (
	"errors"
	"fmt"

	"github.com/keshon/dsda-bot/internal/mapid"
)

var (
	ErrMissingArgument = errors.New("missing required argument")
	ErrUnknownCommand  = errors.New("unknown command")
)

const (
	missingArgumentMessage = "Missing required argument for command."
	unknownCommandMessage  = "Invalid DSDA command passed."
	internalErrorMessage   = "Something went wrong while running the command."
)

// Message converts a routing error into the text shown to the user.
func Message(err error) string {
	var fe *mapid.FormatError
	switch {
	case errors.As(err, &fe):
		return fmt.Sprintf("Invalid map format: %s. Map number format must be \"e#m#\", \"map##\", \"d#ep#\" or \"d#all\" (# or ## means map##).", fe.Text)
	case errors.Is(err, ErrMissingArgument):
		return missingArgumentMessage
	case errors.Is(err, ErrUnknownCommand):
		return unknownCommandMessage
	}
	return internalErrorMessage
}

// errorKind labels err for logs and metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, mapid.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrMissingArgument):
		return "missing_argument"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	}
	return "error"
}
