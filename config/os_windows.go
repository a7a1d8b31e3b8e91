//go:build windows

package config

import (
	"os"

	"golang.org/x/sys/windows"
)

// virtualTerminal switches console attached to stream into VT100 mode.
// Consoles older than Windows 10 cannot do it.
func virtualTerminal(stream *os.File) bool {
	if windows.RtlGetVersion().MajorVersion < 10 {
		return false
	}

	h := windows.Handle(stream.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return true
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
