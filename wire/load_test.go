package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosJSON(t *testing.T) {
	var p Pos
	require.NoError(t, json.Unmarshal([]byte(`[3,7]`), &p))
	assert.Equal(t, Pos{Line: 3, Col: 7}, p)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `[3,7]`, string(data))
}

func TestPosJSONRejectsObject(t *testing.T) {
	var p Pos
	assert.Error(t, json.Unmarshal([]byte(`{"line":3,"col":7}`), &p))
}

func TestPosString(t *testing.T) {
	assert.Equal(t, "(12, 4)", Pos{Line: 12, Col: 4}.String())
}

func TestPosIsZero(t *testing.T) {
	assert.True(t, Pos{}.IsZero())
	assert.False(t, Pos{Line: 1}.IsZero())
	assert.False(t, Pos{Col: 1}.IsZero())
}

func TestLoadMessageDecode(t *testing.T) {
	line := `{"tag":"Message","loadSeverity":"Error","loadFile":"src/Lib.hs",` +
		`"loadFilePos":[10,5],"loadFilePosEnd":[10,12],` +
		`"loadMessage":["Variable not in scope: foo","Perhaps you meant fog"]}`
	var m LoadMessage
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	assert.Equal(t, TagMessage, m.Tag)
	assert.Equal(t, SeverityError, m.Severity)
	assert.Equal(t, "src/Lib.hs", m.File)
	assert.Equal(t, Pos{10, 5}, m.Pos)
	assert.Equal(t, Pos{10, 12}, m.PosEnd)
	assert.Len(t, m.Message, 2)
}

func TestLoadMessageVersionDecode(t *testing.T) {
	var m LoadMessage
	require.NoError(t, json.Unmarshal([]byte(`{"tag":"LoadVersion","loadVersion":"9.4.8"}`), &m))
	assert.Equal(t, TagLoadVersion, m.Tag)
	assert.Equal(t, "9.4.8", m.Version)
}
