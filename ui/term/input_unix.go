//go:build unix

package term

import (
	"io"
	"os"
	"syscall"
)

// openInput returns a reader on the terminal input supporting read deadlines.
func openInput(fd int) (io.Reader, func(), error) {
	if err := syscall.SetNonblock(fd, true); err != nil {
		return nil, nil, err
	}
	// A non-blocking descriptor is registered with the runtime poller.
	f := os.NewFile(uintptr(fd), "/dev/stdin")
	return f, func() { syscall.SetNonblock(fd, false) }, nil
}
