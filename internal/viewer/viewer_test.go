package viewer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccr-registry-scraper/internal/storage/sheet"
)

func TestLatestPicksNewestOutput(t *testing.T) {
	dir := t.TempDir()
	headers := []string{"رقم التسجيل"}

	older := filepath.Join(dir, "ccr_checkpoint_page10_20261017_090000.xlsx")
	newer := filepath.Join(dir, "ccr_final_20261017_093000.csv")
	require.NoError(t, sheet.Write(older, sheet.FormatExcel, headers, [][]string{{"1"}}))
	require.NoError(t, sheet.Write(newer, sheet.FormatCSV, headers, [][]string{{"1"}}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("x"), 0o644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	got, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestLatestEmptyDir(t *testing.T) {
	_, err := Latest(t.TempDir())
	assert.Error(t, err)
}

func TestRenderLimitsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccr_final_20261017_093000.csv")
	rows := [][]string{
		{"100234", "عمان"},
		{"100235", "إربد"},
		{"100236", strings.Repeat("مؤسسة ", 20)},
	}
	require.NoError(t, sheet.Write(path, sheet.FormatCSV, []string{"رقم التسجيل", "المحافظة"}, rows))

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, path, 2))

	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "CCR_FINAL_20261017_093000.CSV")
	assert.Contains(t, out, "100234")
	assert.Contains(t, out, "100235")
	assert.NotContains(t, out, "100236")
	assert.Contains(t, out, "2 OF 3 ROWS")
}

func TestRenderMissingFile(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, filepath.Join(t.TempDir(), "ccr_final.xlsx"), 0))
}
