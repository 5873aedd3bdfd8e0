// Package replbridge provides the client half of a REPL automation bridge.
//
// A replbridge engine hosts a long-running interpreter and exposes it over
// three message channels: a command channel carrying strictly alternating
// request/reply pairs, a control channel for out-of-band interrupt signals,
// and a stream channel on which the engine publishes output lines and sync
// markers. The engine package turns that wiring into ordinary blocking calls
// with safe mid-flight interruption; this root package defines the shared
// vocabulary those calls speak.
//
// # Core Types
//
//   - [Response] — outcome of an execution or query (value, error message, or streamed)
//   - [Completions] — result of a completion query
//   - engine.Session — a connection to an attached or spawned engine
//   - wire.Request / wire.Reply — the command-channel envelopes
//
// # Vocabulary
//
// Engine-reported failures (a request the engine understood but could not
// satisfy) are ordinary [Response] values of kind [KindError], not Go errors.
// Go errors are reserved for the bridge itself: [ErrEngineUnavailable],
// [ErrSessionClosed], [ErrProtocol], and context cancellation.
//
// # Quick Start
//
//	sess, err := engine.Spawn(ctx)
//	if err != nil { log.Fatal(err) }
//	defer sess.Close()
//
//	resp, err := sess.Execute(ctx, "1 + 1")
//	if err != nil { log.Fatal(err) }
//	fmt.Println(resp.Content)
package replbridge
