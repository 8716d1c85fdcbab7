//go:build !linux

package commands

import (
	"os"

	"github.com/rawbytedev/wirechain"
)

func writeGather(f *os.File, view wirechain.GatherView) (int64, error) {
	return view.WriteTo(f)
}
