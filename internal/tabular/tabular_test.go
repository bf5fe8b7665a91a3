package tabular

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    string  `csv:"id"`
	Value float64 `csv:"value"`
	Label string  `csv:"shopping time"`
}

func TestReadShortRows(t *testing.T) {
	rows, err := Read[row](strings.NewReader("id,value,shopping time\na,1.5,x\nb,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []row{{ID: "a", Value: 1.5, Label: "x"}, {ID: "b", Value: 2}}, rows)
}

func TestWriteHeaderOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []row{{ID: "t_0", Value: 3, Label: "1140"}}))
	assert.Equal(t, "id,value,shopping time\nt_0,3,1140\n", buf.String())
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rows.csv")
	in := []row{{ID: "a", Value: 1}, {ID: "b", Value: 2.25}}
	require.NoError(t, WriteFile(path, in))

	out, err := ReadFile[row](path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile[row](filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
