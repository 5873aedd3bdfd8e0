// Package transport connects the three line-delimited channels between a
// client and a replbridge engine: command (strict request/reply), control
// (one-way interrupt signals), and stream (one-way output and sync markers).
//
// Endpoint addresses use tcp:// or unix:// schemes; a bare host:port dials
// TCP. In attached mode the addresses come from the REPLBRIDGE_*_ADDR
// environment variables; in owned mode they come from the bootstrap line the
// engine prints on stdout at startup.
package transport
