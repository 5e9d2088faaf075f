package sheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	headers = []string{"رقم التسجيل", "المحافظة", "الحالة"}
	rows    = [][]string{
		{"100234", "عمان", "قائمة"},
		{"100235", "إربد", "منتهية"},
	}
)

func TestWriteReadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ccr_final.xlsx")

	require.NoError(t, Write(path, FormatExcel, headers, rows))

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, headers, got[0])
	assert.Equal(t, rows[0], got[1])
	assert.Equal(t, rows[1], got[2])
}

func TestWriteReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccr_final.csv")

	require.NoError(t, Write(path, FormatCSV, headers, rows))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), utf8BOM), "csv must start with a BOM")

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, append([][]string{headers}, rows...), got)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, ".csv", FormatCSV.Ext())
	assert.Equal(t, ".xlsx", FormatExcel.Ext())
	assert.Equal(t, FormatCSV, FormatFromPath("a/b/ccr.CSV"))
	assert.Equal(t, FormatExcel, FormatFromPath("ccr.xlsx"))
}
