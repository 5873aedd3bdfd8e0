// Package enginetest provides an in-process stub engine for exercising
// sessions without a real interpreter. The stub serves the three channels
// on loopback listeners, answers command requests through a configurable
// handler, records every request and interrupt it sees, and hands the
// stream channel to the test for scripted output and sync markers.
package enginetest

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/replbridge/replbridge/transport"
	"github.com/replbridge/replbridge/wire"
)

// streamReadyTimeout bounds how long Emit helpers wait for a session to
// connect the stream channel.
const streamReadyTimeout = 5 * time.Second

// Handler answers one command request. Returning nil selects the default
// reply for the request's tag.
type Handler func(req wire.Request) *wire.Reply

// Engine is a stub engine. One session may connect to it.
type Engine struct {
	tb  testing.TB
	eps transport.Endpoints

	interrupts chan string

	mu       sync.Mutex
	handler  Handler
	requests []wire.Request
	nextSync int64
	conns    []net.Conn
	down     bool

	strmMu    sync.Mutex
	strm      *transport.Conn
	strmReady chan struct{}
}

// Start serves a stub engine on loopback listeners and returns it. The stub
// shuts down with the test.
func Start(tb testing.TB) *Engine {
	tb.Helper()
	e := &Engine{
		tb:         tb,
		interrupts: make(chan string, 64),
		strmReady:  make(chan struct{}),
	}

	cmd := listen(tb)
	ctl := listen(tb)
	str := listen(tb)
	e.eps = transport.Endpoints{
		Command: "tcp://" + cmd.Addr().String(),
		Control: "tcp://" + ctl.Addr().String(),
		Stream:  "tcp://" + str.Addr().String(),
	}

	tb.Cleanup(e.shutdown)

	go e.acceptAndServe(cmd, e.serveCommand)
	go e.acceptAndServe(ctl, e.serveControl)
	go e.acceptStream(str)

	return e
}

// Endpoints returns the stub's channel addresses for Attach.
func (e *Engine) Endpoints() transport.Endpoints {
	return e.eps
}

// OnRequest installs the command handler. Safe to call at any point; only
// requests arriving afterwards see it.
func (e *Engine) OnRequest(h Handler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// Requests returns a copy of every command request received so far, in
// arrival order.
func (e *Engine) Requests() []wire.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]wire.Request, len(e.requests))
	copy(out, e.requests)
	return out
}

// Interrupts returns the channel of control-channel lines, one entry per
// signal received.
func (e *Engine) Interrupts() <-chan string {
	return e.interrupts
}

// EmitOutput writes one content line to the stream channel.
func (e *Engine) EmitOutput(sel wire.Selector, text string) {
	e.emit(wire.FormatContent(sel, text))
}

// EmitSync writes one sync marker to the stream channel.
func (e *Engine) EmitSync(seq int64) {
	e.emit(wire.FormatSync(seq))
}

// EmitRaw writes an arbitrary line to the stream channel, for exercising
// protocol violations.
func (e *Engine) EmitRaw(line string) {
	e.emit(line)
}

// CloseConns drops every accepted connection, simulating an engine that
// died mid-session. The listeners stay open.
func (e *Engine) CloseConns() {
	e.mu.Lock()
	conns := e.conns
	e.conns = nil
	e.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

func (e *Engine) emit(line string) {
	select {
	case <-e.strmReady:
	case <-time.After(streamReadyTimeout):
		e.tb.Errorf("enginetest: no session connected to the stream channel")
		return
	}
	e.strmMu.Lock()
	defer e.strmMu.Unlock()
	if err := e.strm.WriteLine(context.Background(), []byte(line)); err != nil {
		e.tb.Logf("enginetest: stream write: %v", err)
	}
}

func listen(tb testing.TB) net.Listener {
	tb.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("enginetest: listen: %v", err)
	}
	tb.Cleanup(func() { l.Close() })
	return l
}

func (e *Engine) acceptAndServe(l net.Listener, serve func(*transport.Conn)) {
	conn, err := l.Accept()
	if err != nil {
		return
	}
	if !e.track(conn) {
		return
	}
	go serve(transport.NewConn(conn))
}

func (e *Engine) acceptStream(l net.Listener) {
	conn, err := l.Accept()
	if err != nil {
		return
	}
	if !e.track(conn) {
		return
	}
	e.strmMu.Lock()
	e.strm = transport.NewConn(conn)
	e.strmMu.Unlock()
	close(e.strmReady)
}

// track registers a connection for shutdown, closing it immediately if the
// stub is already down.
func (e *Engine) track(c net.Conn) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.down {
		c.Close()
		return false
	}
	e.conns = append(e.conns, c)
	return true
}

func (e *Engine) shutdown() {
	e.mu.Lock()
	e.down = true
	conns := e.conns
	e.conns = nil
	e.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

func (e *Engine) serveCommand(conn *transport.Conn) {
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return
		}
		if len(line) == 0 {
			continue
		}
		req, err := wire.ParseRequest(line)
		if err != nil {
			e.tb.Errorf("enginetest: bad request: %v", err)
			return
		}

		e.mu.Lock()
		e.requests = append(e.requests, *req)
		h := e.handler
		e.mu.Unlock()

		var reply *wire.Reply
		if h != nil {
			reply = h(*req)
		}
		if reply == nil {
			reply = e.defaultReply(*req)
		}
		data, err := reply.Encode()
		if err != nil {
			e.tb.Errorf("enginetest: encode reply: %v", err)
			return
		}
		if err := conn.WriteLine(context.Background(), data); err != nil {
			return
		}
	}
}

func (e *Engine) serveControl(conn *transport.Conn) {
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return
		}
		e.interrupts <- string(line)
	}
}

// defaultReply is the canonical success answer for req: the matching reply
// tag plus an echo payload tests can assert on. A default ExecStream reply
// allocates the next sync sequence and emits its marker before answering.
func (e *Engine) defaultReply(req wire.Request) *wire.Reply {
	r := &wire.Reply{Tag: req.ResultTag(), Success: true}
	switch req.Tag {
	case wire.TagExecCapture:
		r.Content = req.Content
	case wire.TagExecStream:
		seq := e.allocSync()
		e.EmitSync(seq)
		r.SyncVal = seq
	case wire.TagOpenDoc, wire.TagType, wire.TagOpenSource:
		r.Content = req.Identifier
	case wire.TagCompletion:
		r.StartChars = len(req.LineBeforeCursor)
		r.Candidates = []string{req.LineBeforeCursor}
	}
	return r
}

func (e *Engine) allocSync() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	seq := e.nextSync
	e.nextSync++
	return seq
}
