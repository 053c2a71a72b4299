package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/matsen/citeweb/internal/config"
	"github.com/matsen/citeweb/internal/record"
	"github.com/matsen/citeweb/internal/resolve"
	"github.com/matsen/citeweb/internal/selector"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps an error to the exit code of its category.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, record.ErrBibKeyConflict), errors.Is(err, record.ErrIDMismatch):
		return ExitDataIntegrity
	case errors.Is(err, resolve.ErrMissingInput), errors.Is(err, fs.ErrNotExist):
		return ExitMissingInput
	case errors.Is(err, selector.ErrBadRule):
		return ExitBadRule
	case errors.Is(err, selector.ErrUnknownOrigin):
		return ExitBadStep
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	default:
		return ExitError
	}
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
