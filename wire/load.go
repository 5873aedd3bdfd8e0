package wire

import (
	"encoding/json"
	"fmt"
)

// Load-message tags.
const (
	TagLoading     = "Loading"
	TagMessage     = "Message"
	TagLoadConfig  = "LoadConfig"
	TagLoadVersion = "LoadVersion"
)

// Severities reported on Message entries.
const (
	SeverityWarning = "Warning"
	SeverityError   = "Error"
)

// Pos is a line/column position inside a source file. On the wire it is a
// two-element JSON array, [line, column].
type Pos struct {
	Line int
	Col  int
}

// IsZero reports whether the position is the unset (0, 0) placeholder.
func (p Pos) IsZero() bool { return p.Line == 0 && p.Col == 0 }

// String renders the position as "(line, column)".
func (p Pos) String() string { return fmt.Sprintf("(%d, %d)", p.Line, p.Col) }

// MarshalJSON renders the position as [line, column].
func (p Pos) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Line, p.Col})
}

// UnmarshalJSON accepts a [line, column] array.
func (p *Pos) UnmarshalJSON(data []byte) error {
	var a [2]int
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("wire: position must be a two-element array: %w", err)
	}
	p.Line, p.Col = a[0], a[1]
	return nil
}

// LoadMessage is one entry in a LoadMessagesResponse. The tag selects which
// fields are meaningful:
//
//	Loading      loadModule, loadFile
//	Message      loadSeverity, loadFile, loadFilePos, loadFilePosEnd, loadMessage
//	LoadConfig   loadFile
//	LoadVersion  loadVersion
//
// Entries with an unrecognized tag are carried but rendered as nothing.
type LoadMessage struct {
	Tag string `json:"tag"`

	Module   string `json:"loadModule,omitempty"`
	File     string `json:"loadFile,omitempty"`
	Severity string `json:"loadSeverity,omitempty"`

	Pos    Pos `json:"loadFilePos"`
	PosEnd Pos `json:"loadFilePosEnd"`

	// Message holds the diagnostic body, one string per line.
	Message []string `json:"loadMessage,omitempty"`

	Version string `json:"loadVersion,omitempty"`
}
