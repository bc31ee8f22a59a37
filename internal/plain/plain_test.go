package plain

import (
	"bytes"
	"encoding/json"
	"testing"

	"brane-view/internal/i18n"
	"brane-view/internal/invocation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaintWritesBlockSynchronously(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, i18n.LanguageEnglish, 40)

	done := w.Paint("d1", invocation.Model{
		FormattedOutput: "line one\nline two",
		Info:            invocation.Info{Status: "complete", Created: "January 2, 2006 at 3:04:05 PM UTC"},
		Instructions:    json.RawMessage(`{"graph":[1,2,3],"table":{"a":1,"b":2},"v":"x"}`),
	})
	require.NotNil(t, done)
	select {
	case <-done:
	default:
		t.Fatal("paint should complete before returning")
	}

	out := buf.String()
	assert.Contains(t, out, "── d1 ")
	assert.Contains(t, out, "Status   COMPLETE")
	assert.Contains(t, out, "Created  January 2, 2006 at 3:04:05 PM UTC")
	assert.NotContains(t, out, "Started")
	assert.Contains(t, out, "  line one\n  line two\n")
	assert.Contains(t, out, `IR: graph[3] table{2} v="x"`)
}

func TestPaintInProgressAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, i18n.LanguageEnglish, 0)

	w.Paint("d1", invocation.Model{InProgress: true, Info: invocation.Info{Status: "running"}})
	assert.Contains(t, buf.String(), "Running…")

	buf.Reset()
	w.Paint("d1", invocation.Model{Info: invocation.Info{Status: "complete"}})
	assert.Contains(t, buf.String(), "(no output)")
	assert.NotContains(t, buf.String(), "IR:")
}

func TestPaintChineseLabels(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, i18n.LanguageChinese, 40).Paint("d1", invocation.Model{Info: invocation.Info{Status: "error"}})
	assert.Contains(t, buf.String(), "状态  ERROR")
	assert.Contains(t, buf.String(), "输出:")
}

func TestRuleWidth(t *testing.T) {
	assert.Equal(t, "── ab ───", rule("ab", 9))
	assert.Equal(t, "── long-title ───", rule("long-title", 5))
}
