package wire

import (
	"encoding/json"
	"fmt"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/internal/errfmt"
)

// Request tags recognized by the engine.
const (
	TagExecCapture  = "RequestExecCapture"
	TagExecStream   = "RequestExecStream"
	TagOpenDoc      = "RequestOpenDoc"
	TagType         = "RequestType"
	TagCompletion   = "RequestCompletion"
	TagOpenSource   = "RequestOpenSource"
	TagLoadMessages = "RequestLoadMessages"
)

// Request is a command-channel request envelope. The tag determines which
// payload fields are meaningful; construct requests with the package
// constructors so the two always agree. The zero value is not a valid
// request.
type Request struct {
	Tag     string `json:"tag"`
	Content string `json:"content,omitempty"`

	// Identifier names the binding for doc, type, and source lookups.
	Identifier string `json:"identifier,omitempty"`

	// ShowHoleFits is emitted for every type query, including false;
	// the engine distinguishes absent from disabled.
	ShowHoleFits *bool `json:"showHoleFits,omitempty"`

	LineBeforeCursor string `json:"lineBeforeCursor,omitempty"`
}

// ExecCapture runs code with output buffered by the engine and returned
// inline in the reply.
func ExecCapture(code string) Request {
	return Request{Tag: TagExecCapture, Content: code}
}

// ExecStream runs code with output published on the stream channel; the
// reply carries the sync sequence number that marks the end of it.
func ExecStream(code string) Request {
	return Request{Tag: TagExecStream, Content: code}
}

// OpenDoc looks up documentation for identifier.
func OpenDoc(identifier string) Request {
	return Request{Tag: TagOpenDoc, Identifier: identifier}
}

// TypeQuery looks up the type of identifier. showHoleFits asks the engine
// to include valid hole fits in the answer.
func TypeQuery(identifier string, showHoleFits bool) Request {
	fits := showHoleFits
	return Request{Tag: TagType, Identifier: identifier, ShowHoleFits: &fits}
}

// Completion asks for completion candidates for the text left of the cursor.
func Completion(lineBeforeCursor string) Request {
	return Request{Tag: TagCompletion, LineBeforeCursor: lineBeforeCursor}
}

// OpenSource looks up the defining source location of identifier.
func OpenSource(identifier string) Request {
	return Request{Tag: TagOpenSource, Identifier: identifier}
}

// LoadMessages asks for the diagnostics the interpreter produced while
// loading the current target.
func LoadMessages() Request {
	return Request{Tag: TagLoadMessages}
}

// requestResultTags maps each request tag to the reply tag that answers it.
var requestResultTags = map[string]string{
	TagExecCapture:  TagExecCaptureResponse,
	TagExecStream:   TagExecStreamResponse,
	TagOpenDoc:      TagOpenDocResponse,
	TagType:         TagTypeResponse,
	TagCompletion:   TagCompletionResponse,
	TagOpenSource:   TagOpenSourceResponse,
	TagLoadMessages: TagLoadMessagesResponse,
}

// ResultTag returns the reply tag that answers this request, or "" for an
// unrecognized request tag.
func (r Request) ResultTag() string {
	return requestResultTags[r.Tag]
}

// Encode serializes the request as a single JSON line, without the trailing
// newline.
func (r Request) Encode() ([]byte, error) {
	if r.Tag == "" {
		return nil, fmt.Errorf("wire: encode request with empty tag")
	}
	return json.Marshal(r)
}

// ParseRequest decodes one command-channel line into a Request. Used by
// engine stand-ins (test stubs, mock binaries); the client only encodes.
func ParseRequest(line []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("%w: malformed request %q: %v",
			replbridge.ErrProtocol, errfmt.Truncate(string(line)), err)
	}
	if r.Tag == "" {
		return nil, fmt.Errorf("%w: request without tag: %q",
			replbridge.ErrProtocol, errfmt.Truncate(string(line)))
	}
	return &r, nil
}
