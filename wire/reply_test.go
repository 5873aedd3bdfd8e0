package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replbridge/replbridge"
)

func TestParseReply(t *testing.T) {
	r, err := ParseReply([]byte(`{"tag":"ExecCaptureResponse","success":true,"content":"2\n"}`))
	require.NoError(t, err)
	assert.Equal(t, TagExecCaptureResponse, r.Tag)
	assert.True(t, r.Success)
	assert.Equal(t, "2\n", r.Content)
}

func TestParseReplyCompletion(t *testing.T) {
	r, err := ParseReply([]byte(`{"tag":"CompletionResponse","success":true,"startChars":5,"candidates":["import","imports"]}`))
	require.NoError(t, err)
	assert.Equal(t, 5, r.StartChars)
	assert.Equal(t, []string{"import", "imports"}, r.Candidates)
}

func TestParseReplyExecStreamSyncVal(t *testing.T) {
	r, err := ParseReply([]byte(`{"tag":"ExecStreamResponse","success":true,"syncVal":17}`))
	require.NoError(t, err)
	assert.Equal(t, int64(17), r.SyncVal)
}

func TestParseReplyLoadMessages(t *testing.T) {
	line := `{"tag":"LoadMessagesResponse","success":true,"messages":[` +
		`{"tag":"Loading","loadModule":"Main","loadFile":"Main.hs"},` +
		`{"tag":"Message","loadSeverity":"Warning","loadFile":"Main.hs","loadFilePos":[3,1],"loadFilePosEnd":[3,9],"loadMessage":["Defined but not used: x"]}]}`
	r, err := ParseReply([]byte(line))
	require.NoError(t, err)
	require.Len(t, r.Messages, 2)
	assert.Equal(t, TagLoading, r.Messages[0].Tag)
	assert.Equal(t, "Main", r.Messages[0].Module)
	assert.Equal(t, Pos{3, 1}, r.Messages[1].Pos)
	assert.Equal(t, Pos{3, 9}, r.Messages[1].PosEnd)
}

func TestParseReplyLenient(t *testing.T) {
	// Unknown fields and unknown tags decode fine; correlation is the
	// caller's business.
	r, err := ParseReply([]byte(`{"tag":"FutureResponse","extra":42}`))
	require.NoError(t, err)
	assert.Equal(t, "FutureResponse", r.Tag)
}

func TestParseReplyErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", "garbage"},
		{"truncated", `{"tag":"ExecCaptureResp`},
		{"missing tag", `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReply([]byte(tt.line))
			require.Error(t, err)
			assert.True(t, errors.Is(err, replbridge.ErrProtocol))
		})
	}
}

func TestAnswers(t *testing.T) {
	req := ExecStream("print 1")
	assert.True(t, (&Reply{Tag: TagExecStreamResponse}).Answers(req))
	assert.False(t, (&Reply{Tag: TagExecCaptureResponse}).Answers(req))
	assert.False(t, (&Reply{Tag: TagExecStreamResponse}).Answers(Request{Tag: "RequestBogus"}))
}

func TestReplyEncodeRoundTrip(t *testing.T) {
	orig := &Reply{Tag: TagTypeResponse, Success: true, Content: "fmap :: Functor f => (a -> b) -> f a -> f b"}
	data, err := orig.Encode()
	require.NoError(t, err)

	got, err := ParseReply(data)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}
