//go:build linux

package commands

import (
	"errors"
	"os"

	"github.com/rawbytedev/wirechain"
	"golang.org/x/sys/unix"
)

// maxIovecs is IOV_MAX on Linux.
const maxIovecs = 1024

// writeGather hands the gather view to writev(2), resuming after short
// writes.
func writeGather(f *os.File, view wirechain.GatherView) (int64, error) {
	iovs := make([][]byte, 0, len(view))
	for _, b := range view {
		if len(b) > 0 {
			iovs = append(iovs, b)
		}
	}
	fd := int(f.Fd())
	var total int64
	for len(iovs) > 0 {
		n, err := unix.Writev(fd, iovs[:min(len(iovs), maxIovecs)])
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return total, err
		}
		total += int64(n)
		iovs = consume(iovs, n)
	}
	return total, nil
}

// consume drops the first n written bytes from iovs.
func consume(iovs [][]byte, n int) [][]byte {
	for n > 0 && len(iovs) > 0 {
		if n < len(iovs[0]) {
			iovs[0] = iovs[0][n:]
			return iovs
		}
		n -= len(iovs[0])
		iovs = iovs[1:]
	}
	return iovs
}
