// Package viewer prints saved registry files as terminal tables.
package viewer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"ccr-registry-scraper/internal/normalize"
	"ccr-registry-scraper/internal/storage/sheet"
)

// cellWidth caps the width of a rendered cell, in runes.
const cellWidth = 40

// Latest returns the most recently modified ccr_* output file in dir.
func Latest(dir string) (string, error) {
	var files []string
	for _, pattern := range []string{"ccr_*.xlsx", "ccr_*.csv"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no output files in %s", dir)
	}

	type entry struct {
		path    string
		modUnix int64
	}
	entries := make([]entry, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		entries = append(entries, entry{path: f, modUnix: info.ModTime().UnixNano()})
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no readable output files in %s", dir)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].modUnix == entries[j].modUnix {
			return entries[i].path > entries[j].path
		}
		return entries[i].modUnix > entries[j].modUnix
	})
	return entries[0].path, nil
}

// Render writes the first limit data rows of path to w. limit <= 0 renders
// every row.
func Render(w io.Writer, path string, limit int) error {
	rows, err := sheet.Read(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s is empty", path)
	}

	t := NewTable(w)
	t.SetTitle(filepath.Base(path))
	t.AppendHeader(toRow(rows[0]))

	data := rows[1:]
	shown := len(data)
	if limit > 0 && shown > limit {
		shown = limit
	}
	for _, r := range data[:shown] {
		t.AppendRow(toRow(r))
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d of %d rows", shown, len(data))})
	t.Render()
	return nil
}

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		row[i] = normalize.Truncate(v, cellWidth)
	}
	return row
}
