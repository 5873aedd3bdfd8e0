//go:build ignore

// Command mock-engine simulates a replbridge engine for integration tests.
// It serves the three channels on loopback listeners, prints the endpoint
// line on stdout, and answers commands until the client disconnects.
//
// Command behavior: "1+1" evaluates to "2", content prefixed "fail:" is
// reported as an engine failure, everything else echoes. Streamed content is
// split on ";" into output lines followed by a sync marker.
//
// Environment variables control failure modes:
//
//	REPLBRIDGE_MOCK_MODE=no-banner      — never print the endpoint line
//	REPLBRIDGE_MOCK_MODE=bad-banner     — print garbage instead of the endpoint line
//	REPLBRIDGE_MOCK_MODE=interrupt-wait — the first ExecCapture blocks until a
//	                                      control signal arrives, then reports
//	                                      the execution as interrupted
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/replbridge/replbridge/transport"
	"github.com/replbridge/replbridge/wire"
)

var (
	mode          = os.Getenv("REPLBRIDGE_MOCK_MODE")
	interrupts    = make(chan string, 16)
	nextSync      int64
	waitInterrupt = mode == "interrupt-wait"
)

func main() {
	if os.Getenv("REPLBRIDGE_ENGINE_MODE") != "1" {
		fmt.Fprintln(os.Stderr, "mock-engine: REPLBRIDGE_ENGINE_MODE not set")
		os.Exit(1)
	}

	switch mode {
	case "no-banner":
		select {}
	case "bad-banner":
		fmt.Println("mock-engine: ready")
		select {}
	}

	cmdLn := listen()
	ctlLn := listen()
	strmLn := listen()
	fmt.Printf("(%q, %q, %q)\n",
		cmdLn.Addr().String(), ctlLn.Addr().String(), strmLn.Addr().String())

	cmd := accept(cmdLn)
	ctl := accept(ctlLn)
	strm := accept(strmLn)

	go serveControl(ctl)
	serveCommand(cmd, strm)
}

func listen() net.Listener {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mock-engine: listen: %v\n", err)
		os.Exit(1)
	}
	return ln
}

func accept(ln net.Listener) *transport.Conn {
	nc, err := ln.Accept()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mock-engine: accept: %v\n", err)
		os.Exit(1)
	}
	return transport.NewConn(nc)
}

func serveControl(ctl *transport.Conn) {
	for {
		line, err := ctl.ReadLine()
		if err != nil {
			return
		}
		interrupts <- string(line)
	}
}

func serveCommand(cmd, strm *transport.Conn) {
	ctx := context.Background()
	for {
		line, err := cmd.ReadLine()
		if err != nil {
			return
		}
		req, err := wire.ParseRequest(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mock-engine: bad request: %v\n", err)
			continue
		}
		data, err := handle(ctx, *req, strm).Encode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "mock-engine: encode: %v\n", err)
			continue
		}
		if err := cmd.WriteLine(ctx, data); err != nil {
			return
		}
	}
}

func handle(ctx context.Context, req wire.Request, strm *transport.Conn) *wire.Reply {
	reply := &wire.Reply{Tag: req.ResultTag(), Success: true}

	switch req.Tag {
	case wire.TagExecCapture:
		if waitInterrupt {
			waitInterrupt = false
			<-interrupts
			reply.Success = false
			reply.Content = "interrupted"
			return reply
		}
		switch {
		case req.Content == "1+1":
			reply.Content = "2"
		case strings.HasPrefix(req.Content, "fail:"):
			reply.Success = false
			reply.Content = strings.TrimPrefix(req.Content, "fail:")
		default:
			reply.Content = req.Content
		}

	case wire.TagExecStream:
		if req.Content != "" {
			for _, part := range strings.Split(req.Content, ";") {
				_ = strm.WriteLine(ctx, []byte(wire.FormatContent(wire.SelectorPrimary, part)))
			}
		}
		seq := nextSync
		nextSync++
		_ = strm.WriteLine(ctx, []byte(wire.FormatSync(seq)))
		reply.SyncVal = seq

	case wire.TagOpenDoc, wire.TagType, wire.TagOpenSource:
		reply.Content = req.Identifier

	case wire.TagCompletion:
		reply.StartChars = len(req.LineBeforeCursor)
		reply.Candidates = []string{req.LineBeforeCursor}

	case wire.TagLoadMessages:
		reply.Messages = []wire.LoadMessage{
			{Tag: wire.TagLoading, Module: "Main", File: "Main.hs"},
			{Tag: wire.TagLoadVersion, Version: "mock"},
		}
	}
	return reply
}
