package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/wire"
)

func TestExecStreamWaitsForOutput(t *testing.T) {
	out := &syncBuffer{}
	stub, sess := newStubSession(t, WithOutput(out), WithErrorOutput(out))

	stub.OnRequest(func(req wire.Request) *wire.Reply {
		stub.EmitOutput(wire.SelectorPrimary, "one")
		stub.EmitOutput(wire.SelectorError, "warn")
		stub.EmitOutput(wire.SelectorPrimary, "two")
		stub.EmitSync(3)
		return &wire.Reply{Tag: wire.TagExecStreamResponse, Success: true, SyncVal: 3}
	})

	resp, err := sess.ExecStream(context.Background(), "mapM_ print [1,2]")
	if err != nil {
		t.Fatalf("ExecStream: %v", err)
	}
	if resp.Kind != replbridge.KindStream {
		t.Errorf("Kind = %q, want %q", resp.Kind, replbridge.KindStream)
	}

	// The closing marker was processed before ExecStream returned, so the
	// sink already holds every line in arrival order.
	if got, want := out.String(), "one\nwarn\ntwo\n"; got != want {
		t.Errorf("sink = %q, want %q", got, want)
	}
}

func TestExecStreamDefaultReply(t *testing.T) {
	_, sess := newStubSession(t)

	resp, err := sess.ExecStream(context.Background(), "putStrLn \"hi\"")
	if err != nil {
		t.Fatalf("ExecStream: %v", err)
	}
	if resp.Kind != replbridge.KindStream {
		t.Errorf("Kind = %q, want %q", resp.Kind, replbridge.KindStream)
	}
}

func TestExecStreamReportedFailure(t *testing.T) {
	stub, sess := newStubSession(t)
	stub.OnRequest(func(req wire.Request) *wire.Reply {
		return &wire.Reply{Tag: wire.TagExecStreamResponse, Success: false, Content: "boom"}
	})

	resp, err := sess.ExecStream(context.Background(), "undefined")
	if err != nil {
		t.Fatalf("ExecStream: %v", err)
	}
	if !resp.IsError() {
		t.Fatalf("Kind = %q, want %q", resp.Kind, replbridge.KindError)
	}
	if resp.Content != "boom" {
		t.Errorf("Content = %q, want %q", resp.Content, "boom")
	}
}

func TestExecStreamCancelDuringWait(t *testing.T) {
	stub, sess := newStubSession(t)

	// Reply with a marker value the stream never produces, so the call
	// parks in the output wait.
	stub.OnRequest(func(req wire.Request) *wire.Reply {
		return &wire.Reply{Tag: wire.TagExecStreamResponse, Success: true, SyncVal: 7}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		resp *replbridge.Response
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		resp, err := sess.ExecStream(ctx, "forever")
		resCh <- result{resp, err}
	}()

	waitRequests(t, stub, 1)
	time.Sleep(30 * time.Millisecond)
	cancel()

	var res result
	select {
	case res = <-resCh:
	case <-time.After(2 * time.Second):
		t.Fatal("ExecStream did not return after cancellation")
	}
	if res.err != nil {
		t.Fatalf("ExecStream = %v, want nil: the execution itself succeeded", res.err)
	}
	if res.resp.Kind != replbridge.KindStream {
		t.Errorf("Kind = %q, want %q", res.resp.Kind, replbridge.KindStream)
	}

	select {
	case line := <-stub.Interrupts():
		if line != wire.InterruptSignal {
			t.Fatalf("control line = %q, want %q", line, wire.InterruptSignal)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no interrupt signal on the control channel")
	}
	select {
	case extra := <-stub.Interrupts():
		t.Fatalf("unexpected extra interrupt %q", extra)
	default:
	}
}

func TestInterruptDuringExecStreamWait(t *testing.T) {
	stub, sess := newStubSession(t)
	stub.OnRequest(func(req wire.Request) *wire.Reply {
		return &wire.Reply{Tag: wire.TagExecStreamResponse, Success: true, SyncVal: 7}
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := sess.ExecStream(context.Background(), "forever")
		errCh <- err
	}()

	waitRequests(t, stub, 1)
	time.Sleep(30 * time.Millisecond)
	if err := sess.Interrupt(); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("ExecStream = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ExecStream did not return after Interrupt")
	}

	// Interrupt already signalled the engine; the wait must not send a
	// second one.
	select {
	case <-stub.Interrupts():
	case <-time.After(2 * time.Second):
		t.Fatal("no interrupt signal on the control channel")
	}
	select {
	case extra := <-stub.Interrupts():
		t.Fatalf("unexpected extra interrupt %q", extra)
	default:
	}
}

func TestGetCompletions(t *testing.T) {
	stub, sess := newStubSession(t)
	stub.OnRequest(func(req wire.Request) *wire.Reply {
		if req.Tag != wire.TagCompletion {
			t.Errorf("Tag = %q, want %q", req.Tag, wire.TagCompletion)
		}
		if req.LineBeforeCursor != "ma" {
			t.Errorf("LineBeforeCursor = %q, want %q", req.LineBeforeCursor, "ma")
		}
		return &wire.Reply{
			Tag:        wire.TagCompletionResponse,
			Success:    true,
			StartChars: 2,
			Candidates: []string{"map", "mapM", "max"},
		}
	})

	comps, err := sess.GetCompletions(context.Background(), "ma")
	if err != nil {
		t.Fatalf("GetCompletions: %v", err)
	}
	if comps == nil {
		t.Fatal("GetCompletions returned nil for a successful reply")
	}
	if comps.StartChars != 2 {
		t.Errorf("StartChars = %d, want 2", comps.StartChars)
	}
	if len(comps.Candidates) != 3 || comps.Candidates[0] != "map" {
		t.Errorf("Candidates = %v", comps.Candidates)
	}
}

func TestGetCompletionsDeclined(t *testing.T) {
	stub, sess := newStubSession(t)
	stub.OnRequest(func(req wire.Request) *wire.Reply {
		return &wire.Reply{Tag: wire.TagCompletionResponse, Success: false}
	})

	comps, err := sess.GetCompletions(context.Background(), "zzz")
	if err != nil {
		t.Fatalf("GetCompletions: %v", err)
	}
	if comps != nil {
		t.Errorf("comps = %+v, want nil for a declined completion", comps)
	}
}

func TestGetTypeCarriesHoleFits(t *testing.T) {
	stub, sess := newStubSession(t)

	for _, want := range []bool{false, true} {
		if _, err := sess.GetType(context.Background(), "foldr", want); err != nil {
			t.Fatalf("GetType: %v", err)
		}
	}

	reqs := stub.Requests()
	if len(reqs) != 2 {
		t.Fatalf("stub saw %d requests, want 2", len(reqs))
	}
	for i, want := range []bool{false, true} {
		if reqs[i].Tag != wire.TagType {
			t.Errorf("request %d tag = %q, want %q", i, reqs[i].Tag, wire.TagType)
		}
		if reqs[i].ShowHoleFits == nil {
			t.Errorf("request %d omitted showHoleFits", i)
		} else if *reqs[i].ShowHoleFits != want {
			t.Errorf("request %d showHoleFits = %v, want %v", i, *reqs[i].ShowHoleFits, want)
		}
	}
}

func TestIdentifierQueries(t *testing.T) {
	stub, sess := newStubSession(t)

	doc, err := sess.FindDoc(context.Background(), "Data.List.sort")
	if err != nil {
		t.Fatalf("FindDoc: %v", err)
	}
	if doc.Content != "Data.List.sort" {
		t.Errorf("FindDoc Content = %q", doc.Content)
	}

	src, err := sess.FindSource(context.Background(), "sortBy")
	if err != nil {
		t.Fatalf("FindSource: %v", err)
	}
	if src.Content != "sortBy" {
		t.Errorf("FindSource Content = %q", src.Content)
	}

	reqs := stub.Requests()
	if len(reqs) != 2 || reqs[0].Tag != wire.TagOpenDoc || reqs[1].Tag != wire.TagOpenSource {
		t.Errorf("request tags = %+v", reqs)
	}
}

func TestLoadMessagesRendersDiagnostics(t *testing.T) {
	stub, sess := newStubSession(t)
	stub.OnRequest(func(req wire.Request) *wire.Reply {
		return &wire.Reply{
			Tag: wire.TagLoadMessagesResponse,
			// Diagnostics arrive even when the load failed.
			Success: false,
			Messages: []wire.LoadMessage{
				{Tag: wire.TagLoading, Module: "Main", File: "Main.hs"},
				{Tag: "Mystery"},
				{Tag: wire.TagLoadVersion, Version: "9.4.8"},
			},
		}
	})

	lines, err := sess.LoadMessages(context.Background())
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	want := []string{
		"Loaded Main from Main.hs",
		"Running interpreter version 9.4.8",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestValueQueryAfterStreamFailurePath(t *testing.T) {
	stub, sess := newStubSession(t)
	stub.OnRequest(func(req wire.Request) *wire.Reply {
		return &wire.Reply{Tag: req.ResultTag(), Success: false, Content: "nope"}
	})

	resp, err := sess.ExecStream(context.Background(), "bad")
	if err != nil || !resp.IsError() {
		t.Fatalf("ExecStream = (%+v, %v)", resp, err)
	}

	// The failed stream call consumed no marker, and the session stays
	// usable.
	stub.OnRequest(nil)
	resp, err = sess.Execute(context.Background(), "ok")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want %q", resp.Content, "ok")
	}
}

func TestCommandErrorsAfterEngineDrop(t *testing.T) {
	stub, sess := newStubSession(t)

	stub.CloseConns()

	deadline := time.Now().Add(2 * time.Second)
	for sess.Err() == nil {
		if time.Now().After(deadline) {
			t.Fatal("session did not notice the dropped connection")
		}
		time.Sleep(time.Millisecond)
	}
	if err := sess.Err(); !errors.Is(err, replbridge.ErrSessionClosed) {
		t.Fatalf("Err = %v, want ErrSessionClosed", err)
	}
	if _, err := sess.Execute(context.Background(), "1+1"); !errors.Is(err, replbridge.ErrSessionClosed) {
		t.Fatalf("Execute = %v, want ErrSessionClosed", err)
	}
}
