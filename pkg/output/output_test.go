package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out, errOut bytes.Buffer
	return New(&out, &errOut), &out, &errOut
}

func TestSuccess(t *testing.T) {
	p, out, _ := newTestPrinter(t)
	p.Success("Created %d items in %s", 5, "file.json")

	assert.Equal(t, "✓ Created 5 items in file.json\n", out.String())
}

func TestError_GoesToErr(t *testing.T) {
	p, out, errOut := newTestPrinter(t)
	p.Error("failed: %s", "boom")

	assert.Empty(t, out.String())
	assert.Equal(t, "✗ failed: boom\n", errOut.String())
}

func TestInfoAndWarn(t *testing.T) {
	p, out, errOut := newTestPrinter(t)
	p.Info("plain %s", "info")
	p.Warn("careful")

	assert.Equal(t, "plain info\n", out.String())
	assert.Equal(t, "⚠ careful\n", errOut.String())
}

func TestNew_Defaults(t *testing.T) {
	p := New(nil, nil)
	assert.NotNil(t, p.Out)
	assert.NotNil(t, p.Err)
}

func TestTable_Render(t *testing.T) {
	_, _, _ = newTestPrinter(t)

	table := NewTable([]string{"IDENTIFIER", "RESULT"})
	table.AddRow([]string{"CHG1", "201"})
	table.AddRow([]string{"CHG-LONGER-ID", "skipped", "extra cell ignored"})

	var buf bytes.Buffer
	table.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "IDENTIFIER     RESULT"))
	assert.True(t, strings.HasPrefix(lines[1], strings.Repeat("-", len("CHG-LONGER-ID"))))
	assert.Contains(t, lines[2], "CHG1")
	assert.NotContains(t, buf.String(), "extra cell ignored")
}
