package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/rawbytedev/wirechain"
	"github.com/rawbytedev/wirechain/pkg/tlv"
	"github.com/spf13/cobra"
)

var (
	dumpPreview int
	dumpChunk   int
)

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "List the top-level TLV elements of a packet",
	Long: `Dump parses a packet read from file (or stdin) and prints one row per
top-level element. Values are shown as hex, cut to --preview bytes.

--chunk splits the input into segments of that size before parsing, the way
bytes arrive from the network.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().IntVar(&dumpPreview, "preview", 16, "Value bytes to show per element (0 for all)")
	dumpCmd.Flags().IntVar(&dumpChunk, "chunk", 0, "Split input into segments of this many bytes")
}

func runDump(cmd *cobra.Command, args []string) error {
	name := "stdin"
	var data []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		name = args[0]
		data, err = os.ReadFile(name)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	c, err := received(data, chainOptions())
	if err != nil {
		return err
	}
	defer c.Release()
	if err := c.Parse(); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}

	table := NewTableData("#", "Type", "Length", "Segments", "Size", "Value")
	for i, el := range c.Elements() {
		size, _ := el.Size()
		table.AddRow(
			strconv.Itoa(i),
			strconv.FormatUint(el.Type(), 10),
			strconv.Itoa(el.ValueSize()),
			strconv.Itoa(el.SegmentCount()),
			humanize.Bytes(uint64(size)),
			preview(tlv.Value(el), dumpPreview),
		)
	}
	out := cmd.OutOrStdout()
	printTable(out, table)
	fmt.Fprintf(out, "%d elements in %d segments, %s\n",
		c.ElementCount(), c.SegmentCount(), humanize.Bytes(uint64(len(data))))
	return nil
}

// received wraps data without copying, as one segment or as chunk-sized
// segments.
func received(data []byte, opts wirechain.Options) (*wirechain.Chain, error) {
	if dumpChunk <= 0 || len(data) <= dumpChunk {
		return wirechain.FromBytes(data, opts), nil
	}
	c := wirechain.New(opts)
	for off := 0; off < len(data); off += dumpChunk {
		end := min(off+dumpChunk, len(data))
		if _, err := c.AppendSegment(wirechain.NewSegment(wirechain.NewStore(data[off:end]))); err != nil {
			c.Release()
			return nil, err
		}
	}
	return c, nil
}

func preview(value []byte, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return hex.EncodeToString(value)
	}
	return hex.EncodeToString(value[:limit]) + "..."
}
