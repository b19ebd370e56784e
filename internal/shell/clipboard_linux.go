//go:build linux

package shell

import "errors"

// writeClipboard is unavailable on Linux builds without X11 support.
func writeClipboard(string) error {
	return errors.New("clipboard not available on this platform (Linux without X11)")
}
