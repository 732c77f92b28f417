package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/nsqwire/internal/inspector"
	"github.com/muurk/nsqwire/internal/logging"
	"github.com/muurk/nsqwire/internal/metrics"
	"github.com/muurk/nsqwire/internal/protocol"
	"github.com/muurk/nsqwire/internal/ui"
)

// Decode command flags
var (
	hexInput     bool
	jsonLines    bool
	showStats    bool
	interactive  bool
	maxFrameSize uint32
)

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().BoolVar(&hexInput, "hex", false, "Input is hex text (whitespace ignored)")
	decodeCmd.Flags().BoolVar(&jsonLines, "jsonl", false, "Print one JSON object per frame")
	decodeCmd.Flags().BoolVar(&showStats, "stats", false, "Print Prometheus counters after decoding")
	decodeCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Browse frames in an interactive terminal view")
	decodeCmd.Flags().Uint32Var(&maxFrameSize, "max-frame-size", protocol.DefaultMaxFrameSize, "Largest accepted frame size field in bytes")
}

// decodeCmd decodes a captured server byte stream
var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a captured server byte stream",
	Long: `Decode frames sent by nsqd from a capture file or stdin.

Decoding stops at the first error, since the stream cannot be
resynchronized after a bad frame. Frames decoded before the error are
still printed.`,
	Example: `  # Decode a capture
  nsqwire decode capture.bin

  # Decode hex from another tool
  echo "0000000600000000 4f4b" | nsqwire decode --hex

  # Machine-readable output with counters
  nsqwire decode capture.bin --jsonl --stats`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	source := "stdin"
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open capture: %w", err)
		}
		defer f.Close()
		in = f
		source = args[0]
	}

	data, err := readCapture(in, hexInput)
	if err != nil {
		return err
	}
	logging.Info("Decoding capture", zap.String("source", source), zap.Int("bytes", len(data)))

	collector := metrics.NewCollector()
	rows, decodeErr := decodeCapture(data, maxFrameSize, collector)

	out := cmd.OutOrStdout()
	switch {
	case interactive:
		if !ui.IsTerminal(os.Stdout) {
			return fmt.Errorf("--interactive needs a terminal")
		}
		if err := inspector.Run(rows, source); err != nil {
			return fmt.Errorf("inspector failed: %w", err)
		}
	case jsonLines:
		if err := writeJSONLines(out, rows); err != nil {
			return err
		}
	case out == os.Stdout && ui.IsTerminal(os.Stdout):
		p := ui.NewPrinter(out)
		p.PrintHeader("Decode", "nsqwire decode "+source, map[string]string{
			"bytes":  strconv.Itoa(len(data)),
			"frames": strconv.Itoa(len(rows)),
		})
		if len(rows) > 0 {
			p.PrintFrames(rows)
		}
		if shown := ui.DefaultHeight - 1; len(rows) > shown {
			p.Println(ui.HintStyle.Render(fmt.Sprintf(
				"showing the first %d of %d frames; use --interactive or pipe the output to see all", shown, len(rows))))
		}
		if decodeErr != nil {
			p.PrintError("Decoding stopped", decodeErr, decodeHints(decodeErr))
			break
		}
		summary := ui.NewSuccessResult("Decoded "+source, nil).SetWidth(p.Width())
		for kind, n := range countKinds(rows) {
			summary.AddDetail(kind, strconv.Itoa(n))
		}
		p.Println(summary.Render())
	default:
		_, _ = io.WriteString(out, ui.RenderFrameLines(rows))
	}

	if showStats {
		if err := collector.WriteText(out); err != nil {
			return err
		}
	}
	return decodeErr
}

// readCapture reads all of in, decoding hex text when asHex is set
func readCapture(in io.Reader, asHex bool) ([]byte, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	if !asHex {
		return data, nil
	}

	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(data))
	decoded, err := hex.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return decoded, nil
}

// frameRecorder remembers the wire size of each decoded frame and forwards
// events to the metrics collector
type frameRecorder struct {
	protocol.Observer
	sizes []int
}

func (r *frameRecorder) FrameDecoded(v protocol.Value, n int) {
	r.sizes = append(r.sizes, n)
	r.Observer.FrameDecoded(v, n)
}

// decodeCapture decodes every frame in data. The returned error is nil
// when the capture ends on a frame boundary.
func decodeCapture(data []byte, limit uint32, obs protocol.Observer) ([]ui.FrameRow, error) {
	if obs == nil {
		obs = metrics.NewCollector()
	}
	rec := &frameRecorder{Observer: obs}
	r := protocol.NewReader(bytes.NewReader(data),
		protocol.WithDecoder(&protocol.Decoder{MaxFrameSize: limit}),
		protocol.WithObserver(rec),
	)

	var rows []ui.FrameRow
	offset := 0
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			rows = append(rows, ui.NewErrorRow(len(rows), offset, err))
			return rows, fmt.Errorf("frame %d at offset %d: %w", len(rows)-1, offset, err)
		}

		n := rec.sizes[len(rec.sizes)-1]
		row := ui.NewFrameRow(len(rows), offset, v, n)
		row.Raw = data[offset : offset+n]
		rows = append(rows, row)
		offset += n
	}
}

func countKinds(rows []ui.FrameRow) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Kind]++
	}
	return counts
}

func decodeHints(err error) []string {
	switch protocol.KindOf(err) {
	case protocol.KindEndOfStream:
		return []string{"the capture ends inside a frame; it may have been truncated"}
	case protocol.KindMalformedFrame:
		return []string{"check the capture starts on a frame boundary", "raise --max-frame-size for very large messages"}
	case protocol.KindUnknownFrameType:
		return []string{"captures of client traffic cannot be decoded; capture the server side"}
	default:
		return nil
	}
}

// frameRecord is the --jsonl form of a decoded frame
type frameRecord struct {
	Index     int    `json:"index"`
	Offset    int    `json:"offset"`
	Size      int    `json:"size,omitempty"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Code      string `json:"code,omitempty"`
	ID        string `json:"id,omitempty"`
	Attempts  uint16 `json:"attempts,omitempty"`
	Timestamp uint64 `json:"timestamp,omitempty"`
	Body      []byte `json:"body,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newFrameRecord(row ui.FrameRow) frameRecord {
	rec := frameRecord{Index: row.Index, Offset: row.Offset, Size: row.Size, Type: row.Kind}
	switch v := row.Value.(type) {
	case nil:
		if row.Err != nil {
			rec.Error = row.Err.Error()
		}
	case protocol.Response:
		rec.Text = v.Text
	case protocol.RemoteError:
		rec.Text = v.Text
		rec.Code = v.Code()
	case protocol.Message:
		rec.ID = v.ID.String()
		rec.Attempts = v.Attempts
		rec.Timestamp = v.Timestamp
		rec.Body = v.Body
	}
	return rec
}

func writeJSONLines(w io.Writer, rows []ui.FrameRow) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(newFrameRecord(row)); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", row.Index, err)
		}
	}
	return nil
}
