//go:build !unix

package term

import (
	"io"
	"os"
)

func openInput(fd int) (io.Reader, func(), error) {
	return os.Stdin, func() {}, nil
}
