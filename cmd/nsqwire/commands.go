package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/nsqwire/internal/config"
	"github.com/muurk/nsqwire/internal/logging"
	"github.com/muurk/nsqwire/internal/protocol"
	"github.com/muurk/nsqwire/internal/ui"
)

// Output and input flags shared by the byte-producing commands
var (
	rawOutput    bool
	profilePath  string
	msgID        string
	msgAttempts  uint16
	msgTimestamp int64
)

// commandArgs is the number of positional arguments each verb takes.
// -1 means one or more.
var commandArgs = map[string]int{
	"nop":      0,
	"identify": 0,
	"auth":     1,
	"sub":      2,
	"rdy":      1,
	"fin":      1,
	"req":      2,
	"touch":    1,
	"cls":      0,
	"pub":      2,
	"mpub":     -1,
	"dpub":     3,
	"magic":    0,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(frameCmd)
	rootCmd.AddCommand(identifyCmd)

	encodeCmd.Flags().BoolVar(&rawOutput, "raw", false, "Write raw bytes instead of a hex dump")
	encodeCmd.Flags().StringVar(&profilePath, "profile", "", "Profile file for the identify command (default: user config dir)")

	frameCmd.Flags().BoolVar(&rawOutput, "raw", false, "Write raw bytes instead of a hex dump")
	frameCmd.Flags().StringVar(&msgID, "id", "", "Message id, 16 printable ASCII bytes (default: random)")
	frameCmd.Flags().Uint16Var(&msgAttempts, "attempts", 1, "Message delivery attempts")
	frameCmd.Flags().Int64Var(&msgTimestamp, "timestamp", 0, "Message timestamp in nanoseconds since the epoch (default: now)")

	identifyCmd.Flags().StringVar(&profilePath, "profile", "", "Profile file (default: user config dir)")
}

// encodeCmd builds one client command
var encodeCmd = &cobra.Command{
	Use:   "encode <verb> [args...]",
	Short: "Encode a client command",
	Long: `Build a client command and print its wire bytes.

Verbs:
  nop                               NOP
  identify                          IDENTIFY with the profile document
  auth <secret>                     AUTH
  sub <topic> <channel>             SUB
  rdy <count>                       RDY
  fin <id>                          FIN
  req <id> <timeout>                REQ (timeout as 500ms, 5s or plain milliseconds)
  touch <id>                        TOUCH
  cls                               CLS
  pub <topic> <body>                PUB
  mpub <topic> <body> [body...]     MPUB
  dpub <topic> <defer> <body>       DPUB
  magic                             the "  V2" protocol preamble`,
	Example: `  # Hex dump of a subscription
  nsqwire encode sub events archive

  # Raw bytes, e.g. to pipe into nc
  nsqwire encode pub events "hello world" --raw

  # Requeue with a 5 second delay
  nsqwire encode req 0a1b2c3d4e5f6789 5s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEncode,
}

func runEncode(cmd *cobra.Command, args []string) error {
	verb := strings.ToLower(args[0])
	var buf bytes.Buffer
	w := protocol.NewWriter(&buf)

	switch verb {
	case "magic":
		if err := w.WriteMagic(); err != nil {
			return err
		}
		return writeOutput(cmd, "Encode", "magic", buf.Bytes())

	case "identify":
		profile, err := loadProfile()
		if err != nil {
			return err
		}
		doc, err := profile.Identify.JSON()
		if err != nil {
			return err
		}
		if err := w.Send(protocol.Identify(doc)); err != nil {
			return err
		}
		return writeOutput(cmd, "Encode", protocol.VerbIdentify, buf.Bytes())
	}

	v, err := buildCommand(verb, args[1:])
	if err != nil {
		return err
	}
	if err := w.Send(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", verb, err)
	}
	return writeOutput(cmd, "Encode", v.String(), buf.Bytes())
}

// buildCommand maps a CLI verb and its arguments to a command value
func buildCommand(verb string, args []string) (protocol.Value, error) {
	want, ok := commandArgs[verb]
	if !ok {
		return nil, fmt.Errorf("unknown verb %q", verb)
	}
	switch {
	case want == -1 && len(args) < 2:
		return nil, fmt.Errorf("%s needs a topic and at least one body", verb)
	case want >= 0 && len(args) != want:
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", verb, want, len(args))
	}

	switch verb {
	case "nop":
		return protocol.Nop(), nil
	case "auth":
		return protocol.Auth([]byte(args[0])), nil
	case "sub":
		return protocol.Subscribe(args[0], args[1]), nil
	case "rdy":
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid count %q: %w", args[0], err)
		}
		return protocol.Ready(n)
	case "fin", "touch", "req":
		id, err := protocol.ParseMessageID(args[0])
		if err != nil {
			return nil, err
		}
		switch verb {
		case "fin":
			return protocol.Finish(id)
		case "touch":
			return protocol.Touch(id)
		}
		timeout, err := parseDuration(args[1])
		if err != nil {
			return nil, err
		}
		return protocol.Requeue(id, timeout)
	case "cls":
		return protocol.Close(), nil
	case "pub":
		return protocol.Publish(args[0], []byte(args[1])), nil
	case "mpub":
		bodies := make([][]byte, 0, len(args)-1)
		for _, a := range args[1:] {
			bodies = append(bodies, []byte(a))
		}
		return protocol.MultiPublish(args[0], bodies)
	case "dpub":
		deferTime, err := parseDuration(args[1])
		if err != nil {
			return nil, err
		}
		return protocol.DeferredPublish(args[0], deferTime, []byte(args[2]))
	}
	return nil, fmt.Errorf("verb %q is not a plain command", verb)
}

// parseDuration accepts Go durations ("5s") or plain milliseconds ("5000")
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// frameCmd synthesizes server frames
var frameCmd = &cobra.Command{
	Use:   "frame <response|error|message|heartbeat> [text]",
	Short: "Build a server frame",
	Long: `Build a server frame and print its wire bytes.

Useful for producing fixtures for clients and for "nsqwire decode".
Message frames take the body as text; the id defaults to 16 hex
characters taken from a random UUID.`,
	Example: `  # An OK response
  nsqwire frame response OK

  # An error frame
  nsqwire frame error "E_INVALID cannot SUB in current state"

  # A message with a fixed id
  nsqwire frame message "payload" --id 0a1b2c3d4e5f6789 --attempts 3`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFrame,
}

func runFrame(cmd *cobra.Command, args []string) error {
	kind := strings.ToLower(args[0])
	text := ""
	if len(args) > 1 {
		text = args[1]
	}

	opts := messageOptions{ID: msgID, Attempts: msgAttempts, Timestamp: msgTimestamp}
	data, v, err := buildFrame(kind, text, opts)
	if err != nil {
		return err
	}
	logging.Debug("Built frame", zap.Stringer("value", v), zap.Int("bytes", len(data)))
	return writeOutput(cmd, "Frame", v.String(), data)
}

// messageOptions holds the message header fields for buildFrame
type messageOptions struct {
	ID        string
	Attempts  uint16
	Timestamp int64
}

// buildFrame encodes a server frame of the given kind
func buildFrame(kind, text string, opts messageOptions) ([]byte, protocol.Value, error) {
	var buf bytes.Buffer

	switch kind {
	case "response":
		if text == "" {
			text = "OK"
		}
		protocol.AppendResponseFrame(&buf, text)
		return buf.Bytes(), protocol.Response{Text: text}, nil

	case "error":
		if text == "" {
			return nil, nil, fmt.Errorf("error frames need text, e.g. E_INVALID")
		}
		protocol.AppendErrorFrame(&buf, text)
		return buf.Bytes(), protocol.RemoteError{Text: text}, nil

	case "heartbeat":
		protocol.AppendHeartbeatFrame(&buf)
		return buf.Bytes(), protocol.Heartbeat{}, nil

	case "message":
		idText := opts.ID
		if idText == "" {
			idText = randomMessageID()
		}
		id, err := protocol.ParseMessageID(idText)
		if err != nil {
			return nil, nil, err
		}
		ts := opts.Timestamp
		if ts == 0 {
			ts = time.Now().UnixNano()
		}
		if ts < 0 {
			return nil, nil, fmt.Errorf("timestamp must not be negative")
		}
		msg := protocol.Message{
			Timestamp: uint64(ts),
			Attempts:  opts.Attempts,
			ID:        id,
			Body:      []byte(text),
		}
		protocol.AppendMessageFrame(&buf, msg)
		return buf.Bytes(), msg, nil
	}

	return nil, nil, fmt.Errorf("unknown frame kind %q (want response, error, message or heartbeat)", kind)
}

// randomMessageID returns 16 hex characters, the shape nsqd uses for ids
func randomMessageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:protocol.MessageIDLength]
}

// identifyCmd shows the IDENTIFY document built from the profile
var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Show the IDENTIFY document from the profile",
	Long: `Load the client profile, validate it and print the IDENTIFY JSON
document together with the encoded IDENTIFY command.

The profile is read from --profile, or profile.yaml in the user config
directory. A missing profile falls back to defaults. NSQWIRE_CLIENT_ID and
NSQWIRE_USER_AGENT override the file.`,
	Example: `  # Defaults
  nsqwire identify

  # A TOML profile
  nsqwire identify --profile ./client.toml`,
	Args: cobra.NoArgs,
	RunE: runIdentify,
}

func runIdentify(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(profile.Identify, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identify document: %w", err)
	}
	doc, err := profile.Identify.JSON()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := protocol.Encode(&buf, protocol.Identify(doc)); err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.Println(string(pretty))
	p.Newline()
	p.Println(ui.RenderHexDump(buf.Bytes()))
	return nil
}

func loadProfile() (*config.Profile, error) {
	var (
		profile *config.Profile
		err     error
	)
	if profilePath != "" {
		profile, err = config.LoadProfile(profilePath)
	} else {
		profile, err = config.LoadDefaultProfile()
	}
	if err != nil {
		return nil, err
	}
	if err := profile.Identify.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return profile, nil
}

// writeOutput prints data as raw bytes or as a hex dump, with a header
// when stdout is a terminal
func writeOutput(cmd *cobra.Command, title, command string, data []byte) error {
	out := cmd.OutOrStdout()
	if rawOutput {
		_, err := out.Write(data)
		return err
	}

	p := ui.NewPrinter(out)
	if out == os.Stdout && ui.IsTerminal(os.Stdout) {
		p.PrintHeader(title, command, map[string]string{"bytes": strconv.Itoa(len(data))})
	}
	p.Println(ui.RenderHexDump(data))
	return nil
}
