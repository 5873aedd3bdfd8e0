package transport

import "testing"

func FuzzParseBootstrap(f *testing.F) {
	f.Add(`("tcp://127.0.0.1:5910", "tcp://127.0.0.1:5911", "tcp://127.0.0.1:5912")`)
	f.Add(`('a', 'b', 'c')`)
	f.Add(`()`)
	f.Add(`not a tuple`)
	f.Add(`("", "", "")`)

	f.Fuzz(func(t *testing.T, line string) {
		e, err := ParseBootstrap(line)
		if err != nil {
			return // malformed lines are fine, panics are bugs
		}
		if e.Command == "" || e.Control == "" || e.Stream == "" {
			t.Errorf("ParseBootstrap accepted an incomplete triple: %+v", e)
		}
	})
}
