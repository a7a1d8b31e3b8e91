package config

import (
	"os"

	"golang.org/x/term"
)

// EnableColorOutput checks if log levels could be colorized on stream. Setting
// NO_COLOR environment variable to any non-empty value disables colors.
func EnableColorOutput(stream *os.File) bool {
	if len(os.Getenv("NO_COLOR")) > 0 {
		return false
	}
	if !term.IsTerminal(int(stream.Fd())) {
		return false
	}
	return virtualTerminal(stream)
}
