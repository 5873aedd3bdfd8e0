// Package wire defines the message envelopes exchanged with a replbridge
// engine on its three channels.
//
// The command channel carries [Request] and [Reply] values, one JSON object
// per line, in strict alternation: every request is answered by exactly one
// reply whose tag is the request's result tag. There is no request ID; the
// channel's one-at-a-time discipline is the correlation mechanism, so a
// reply with any other tag is a protocol violation.
//
// The stream channel carries [StreamMessage] lines: interleaved output
// content tagged with a [Selector], and synchronization markers announcing
// that all output up to a sequence number has been flushed.
//
// The control channel carries only the [InterruptSignal] line.
//
// Parse errors wrap [replbridge.ErrProtocol].
package wire
