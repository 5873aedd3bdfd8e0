package wire

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/internal/errfmt"
)

// InterruptSignal is the only payload the control channel carries. The
// engine treats any control-channel line as an interrupt; the literal is
// fixed so stand-ins can assert on it.
const InterruptSignal = "Interrupt"

// Selector routes a content line to an output sink.
type Selector byte

const (
	// SelectorPrimary is regular interpreter output.
	SelectorPrimary Selector = '1'
	// SelectorError is interpreter error output.
	SelectorError Selector = '2'
)

// StreamMessageKind discriminates the two stream-channel line shapes.
type StreamMessageKind int

const (
	// KindContent is an output line: selector, ':', text.
	KindContent StreamMessageKind = iota
	// KindSync is a synchronization marker carrying a sequence number.
	KindSync
)

// StreamMessage is one parsed stream-channel line.
type StreamMessage struct {
	Kind StreamMessageKind

	// Seq is the marker's sequence number when Kind is KindSync. A
	// marker whose printed number does not fit in int64 parses with
	// Seq = -1: it never advances the cursor but still counts as a
	// marker sighting.
	Seq int64

	// Selector and Text are set when Kind is KindContent.
	Selector Selector
	Text     string
}

// syncRe matches a sync marker line. The leading digit is the selector the
// engine printed the marker under; it is captured but not interpreted,
// markers on any selector count.
var syncRe = regexp.MustCompile(`^(\d) #~SYNC~(\d+)~#`)

// ParseStreamLine parses one nonempty stream-channel line. Lines that match
// the sync marker shape become KindSync messages; everything else is a
// content line whose first byte is the selector and whose text begins at
// byte offset two.
func ParseStreamLine(line []byte) (StreamMessage, error) {
	if m := syncRe.FindSubmatch(line); m != nil {
		seq, err := strconv.ParseInt(string(m[2]), 10, 64)
		if err != nil {
			// Digits beyond int64: a stale marker from a previous
			// epoch. Keep the sighting, discard the number.
			seq = -1
		}
		return StreamMessage{Kind: KindSync, Seq: seq}, nil
	}
	if len(line) < 2 {
		return StreamMessage{}, fmt.Errorf("%w: stream line too short: %q",
			replbridge.ErrProtocol, errfmt.Truncate(string(line)))
	}
	sel := Selector(line[0])
	if sel != SelectorPrimary && sel != SelectorError {
		return StreamMessage{}, fmt.Errorf("%w: unrecognized stream selector %q in %q",
			replbridge.ErrProtocol, line[0], errfmt.Truncate(string(line)))
	}
	return StreamMessage{
		Kind:     KindContent,
		Selector: sel,
		Text:     string(line[2:]),
	}, nil
}

// FormatSync renders a sync marker line as the engine prints it. Used by
// engine stand-ins.
func FormatSync(seq int64) string {
	return fmt.Sprintf("%c #~SYNC~%d~#", SelectorPrimary, seq)
}

// FormatContent renders a content line as the engine prints it. Used by
// engine stand-ins.
func FormatContent(sel Selector, text string) string {
	return fmt.Sprintf("%c:%s", sel, text)
}
