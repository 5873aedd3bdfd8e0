package wire

import (
	"encoding/json"
	"fmt"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/internal/errfmt"
)

// Reply tags produced by the engine.
const (
	TagExecCaptureResponse  = "ExecCaptureResponse"
	TagExecStreamResponse   = "ExecStreamResponse"
	TagOpenDocResponse      = "OpenDocResponse"
	TagTypeResponse         = "TypeResponse"
	TagCompletionResponse   = "CompletionResponse"
	TagOpenSourceResponse   = "OpenSourceResponse"
	TagLoadMessagesResponse = "LoadMessagesResponse"
)

// Reply is a command-channel reply envelope. As with Request, the tag
// determines which fields carry the payload.
type Reply struct {
	Tag     string `json:"tag"`
	Success bool   `json:"success"`

	// Content carries captured output, documentation, a type signature,
	// or a source location, depending on the tag. On failure it carries
	// the engine's error message.
	Content string `json:"content,omitempty"`

	// SyncVal is the sequence number of the sync marker that terminates
	// a streamed execution's output.
	SyncVal int64 `json:"syncVal,omitempty"`

	// StartChars and Candidates answer completion requests. StartChars
	// counts the characters of input the candidates replace.
	StartChars int      `json:"startChars,omitempty"`
	Candidates []string `json:"candidates,omitempty"`

	// Messages answers load-message requests.
	Messages []LoadMessage `json:"messages,omitempty"`
}

// Answers reports whether this reply answers req, by tag.
func (r *Reply) Answers(req Request) bool {
	want := req.ResultTag()
	return want != "" && r.Tag == want
}

// Encode serializes the reply as a single JSON line, without the trailing
// newline. Used by engine stand-ins; the client only decodes.
func (r *Reply) Encode() ([]byte, error) {
	if r.Tag == "" {
		return nil, fmt.Errorf("wire: encode reply with empty tag")
	}
	return json.Marshal(r)
}

// ParseReply decodes one command-channel line into a Reply. Any valid JSON
// object with a nonempty tag is accepted; tag and payload agreement is left
// to the caller, which knows which request is outstanding.
func ParseReply(line []byte) (*Reply, error) {
	var r Reply
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("%w: malformed reply %q: %v",
			replbridge.ErrProtocol, errfmt.Truncate(string(line)), err)
	}
	if r.Tag == "" {
		return nil, fmt.Errorf("%w: reply without tag: %q",
			replbridge.ErrProtocol, errfmt.Truncate(string(line)))
	}
	return &r, nil
}
