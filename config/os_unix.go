//go:build !windows

package config

import "os"

// virtualTerminal reports whether stream understands ANSI escape sequences.
// Every unix terminal does.
func virtualTerminal(*os.File) bool {
	return true
}
