package transport

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/replbridge/replbridge"
	"github.com/replbridge/replbridge/internal/errfmt"
)

// Environment variables naming the channel endpoints of a running engine.
// The engine exports the same variables to processes it launches, so a
// client started under an engine can attach without configuration.
const (
	EnvCommandAddr = "REPLBRIDGE_COMMAND_ADDR"
	EnvControlAddr = "REPLBRIDGE_CONTROL_ADDR"
	EnvStreamAddr  = "REPLBRIDGE_STREAM_ADDR"
)

// Endpoints names the three channel addresses of one engine.
type Endpoints struct {
	Command string
	Control string
	Stream  string
}

// Validate reports the first missing address.
func (e Endpoints) Validate() error {
	switch {
	case e.Command == "":
		return fmt.Errorf("transport: command endpoint is empty")
	case e.Control == "":
		return fmt.Errorf("transport: control endpoint is empty")
	case e.Stream == "":
		return fmt.Errorf("transport: stream endpoint is empty")
	}
	return nil
}

// FromEnv reads the endpoint addresses from the environment. All three
// variables must be set.
func FromEnv() (Endpoints, error) {
	e := Endpoints{
		Command: os.Getenv(EnvCommandAddr),
		Control: os.Getenv(EnvControlAddr),
		Stream:  os.Getenv(EnvStreamAddr),
	}
	for _, v := range []struct {
		name, val string
	}{
		{EnvCommandAddr, e.Command},
		{EnvControlAddr, e.Control},
		{EnvStreamAddr, e.Stream},
	} {
		if v.val == "" {
			return Endpoints{}, fmt.Errorf("%w: %s is not set",
				replbridge.ErrEngineUnavailable, v.name)
		}
	}
	return e, nil
}

// bootstrapAddrRe matches one quoted address. The engine quotes with either
// mark, so both are accepted.
var bootstrapAddrRe = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)

// ParseBootstrap parses the single line an owned engine prints on stdout at
// startup: a parenthesized triple of quoted addresses in command, control,
// stream order, e.g.
//
//	("tcp://127.0.0.1:5910", "tcp://127.0.0.1:5911", "tcp://127.0.0.1:5912")
func ParseBootstrap(line string) (Endpoints, error) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return Endpoints{}, fmt.Errorf("%w: malformed endpoint line %q",
			replbridge.ErrProtocol, errfmt.Truncate(line))
	}
	matches := bootstrapAddrRe.FindAllStringSubmatch(s, -1)
	if len(matches) != 3 {
		return Endpoints{}, fmt.Errorf("%w: endpoint line carries %d addresses, want 3: %q",
			replbridge.ErrProtocol, len(matches), errfmt.Truncate(line))
	}
	addr := func(m []string) string {
		if strings.HasPrefix(m[0], `"`) {
			return m[1]
		}
		return m[2]
	}
	e := Endpoints{
		Command: addr(matches[0]),
		Control: addr(matches[1]),
		Stream:  addr(matches[2]),
	}
	if err := e.Validate(); err != nil {
		return Endpoints{}, fmt.Errorf("%w: %v in %q",
			replbridge.ErrProtocol, err, errfmt.Truncate(line))
	}
	return e, nil
}
