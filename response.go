package replbridge

// ResponseKind identifies how an engine answered a request.
type ResponseKind string

const (
	// KindValue is a successful result; the text is in Response.Content.
	KindValue ResponseKind = "value"

	// KindError is an engine-reported failure; Response.Content holds the
	// engine's message. Reported failures are ordinary outcomes, not Go
	// errors.
	KindError ResponseKind = "error"

	// KindStream marks an execution whose output was already delivered
	// line by line on the stream channel. Content is empty.
	KindStream ResponseKind = "stream"
)

// Response is the outcome of an engine request.
type Response struct {
	// Kind identifies the outcome variant.
	Kind ResponseKind `json:"kind"`

	// Content is the result text for KindValue, or the engine's error
	// message for KindError. Empty for KindStream.
	Content string `json:"content,omitempty"`
}

// Value returns a successful response carrying content.
func Value(content string) *Response {
	return &Response{Kind: KindValue, Content: content}
}

// ErrorMessage returns an engine-reported failure response.
func ErrorMessage(text string) *Response {
	return &Response{Kind: KindError, Content: text}
}

// Stream returns the response for an execution whose output went to the
// stream channel rather than the reply.
func Stream() *Response {
	return &Response{Kind: KindStream}
}

// IsError reports whether the engine reported a failure.
func (r *Response) IsError() bool {
	return r.Kind == KindError
}

// Completions is the result of a completion query.
type Completions struct {
	// StartChars is how many characters before the cursor the candidates
	// replace.
	StartChars int `json:"startChars"`

	// Candidates are the completion strings, in engine order.
	Candidates []string `json:"candidates"`
}
