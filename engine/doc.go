// Package engine drives a replbridge engine over its three channels.
//
// A Session is created by Spawn (launch an engine subprocess and read its
// endpoint line) or Attach/AttachEnv (connect to channels an engine already
// serves). One goroutine per session reads the stream channel and routes
// interpreter output to the configured sinks; commands run on the caller's
// goroutine in strict request/reply alternation.
//
// Cancelling a command's context interrupts the engine rather than
// abandoning the exchange: the session signals the control channel, drops
// buffered output until the engine's next sync marker, and drains the reply
// for the aborted request so the command channel stays aligned.
package engine
