package engine

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/replbridge/replbridge/wire"
)

var (
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// renderLoadMessages renders diagnostic records to display lines, one record
// to zero or more lines, input order preserved. Records with an unknown tag
// render to nothing.
func renderLoadMessages(msgs []wire.LoadMessage) []string {
	var lines []string
	for _, m := range msgs {
		lines = append(lines, renderLoadMessage(m)...)
	}
	return lines
}

func renderLoadMessage(m wire.LoadMessage) []string {
	switch m.Tag {
	case wire.TagLoading:
		return []string{fmt.Sprintf("Loaded %s from %s", m.Module, m.File)}

	case wire.TagMessage:
		head := severityStyle(m.Severity).Render(m.Severity) + ": at " + m.File
		if !m.Pos.IsZero() {
			head += " " + m.Pos.String()
		}
		if m.PosEnd != m.Pos {
			head += "-" + m.PosEnd.String()
		}
		lines := make([]string, 0, 1+len(m.Message))
		lines = append(lines, head)
		for _, body := range m.Message {
			lines = append(lines, "   "+body)
		}
		return lines

	case wire.TagLoadConfig:
		return []string{"Loading configuration from " + m.File}

	case wire.TagLoadVersion:
		return []string{"Running interpreter version " + m.Version}

	default:
		return nil
	}
}

func severityStyle(severity string) lipgloss.Style {
	if severity == wire.SeverityWarning {
		return warningStyle
	}
	return errorStyle
}
