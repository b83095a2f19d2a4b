package output_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sigil-earn/internal/output"
)

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)
	require.NoError(t, f.Print(map[string]string{"state": "done"}))

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "done", got["state"])
	assert.True(t, f.IsJSON())
	assert.Equal(t, output.FormatJSON, f.Format())
	assert.Equal(t, &buf, f.Writer())
}

type stringer struct{}

func (stringer) String() string { return "from stringer" }

func TestFormatter_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)
	require.NoError(t, f.Print("plain"))
	require.NoError(t, f.Print(stringer{}))
	require.NoError(t, f.Print(42))
	require.NoError(t, f.Printf("%s=%d\n", "n", 7))
	require.NoError(t, f.Println("line"))

	assert.Equal(t, "plain\nfrom stringer\n42\nn=7\nline\n", buf.String())
	assert.False(t, f.IsJSON())
}

func TestNewFormatter_ResolvesAuto(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.Equal(t, output.FormatJSON, output.NewFormatter(output.FormatAuto, &buf).Format())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]output.Format{
		"json":   output.FormatJSON,
		" JSON ": output.FormatJSON,
		"text":   output.FormatText,
		"auto":   output.FormatAuto,
		"":       output.FormatAuto,
		"yaml":   output.FormatAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, output.ParseFormat(in), in)
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatAuto))

	f, err := os.Create(filepath.Join(t.TempDir(), "out")) //nolint:gosec // test file
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, output.FormatJSON, output.DetectFormat(f, output.FormatAuto), "regular files are not terminals")
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.FormatSuccess(&buf, "deposited", output.FormatJSON))
	assert.Contains(t, buf.String(), `"status": "success"`)

	buf.Reset()
	require.NoError(t, output.FormatSuccess(&buf, "deposited", output.FormatText))
	assert.Equal(t, "deposited\n", buf.String())
}

func TestMessages(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	output.Infof(&buf, "leg %d", 1)
	output.Warnf(&buf, "retry %d", 2)
	output.Successf(&buf, "tx %s", "abc")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "leg 1")
	assert.Contains(t, lines[1], "retry 2")
	assert.Contains(t, lines[2], "tx abc")
}

func TestTable_Render(t *testing.T) {
	t.Parallel()

	tbl := output.NewTable("LEDGER", "AMOUNT")
	tbl.AddRow("P", "1.5")
	tbl.AddRow("C", "25.000000001")
	assert.Equal(t, 2, tbl.Len())

	want := "LEDGER  AMOUNT\n" +
		"------  ------------\n" +
		"P       1.5\n" +
		"C       25.000000001\n"
	assert.Equal(t, want, tbl.String())
}

func TestTable_RaggedAndUnicode(t *testing.T) {
	t.Parallel()

	tbl := output.NewTable("A")
	tbl.AddRow("é", "extra")
	tbl.AddRow()

	assert.Equal(t, "A\n-  -----\né  extra\n\n", tbl.String())
}

func TestTable_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, output.NewTable().String())
}
