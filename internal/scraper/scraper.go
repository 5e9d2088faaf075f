package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Scraper struct {
	selectors *Selectors
	clean     func(string) string
}

// NewScraper returns a results-table parser. clean is applied to every cell
// text; nil means strings.TrimSpace.
func NewScraper(selectors *Selectors, clean func(string) string) *Scraper {
	if clean == nil {
		clean = strings.TrimSpace
	}
	return &Scraper{
		selectors: selectors,
		clean:     clean,
	}
}

// TableStats describes how the rows of one results table were classified.
type TableStats struct {
	TotalRows int
	Malformed int
	Invalid   int
	Valid     int
}

// ParseTable extracts the valid records from the results table HTML. The
// first HeaderRows rows (filter row and header row) are skipped.
func (s *Scraper) ParseTable(html string) ([]Record, TableStats, error) {
	var stats TableStats

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, stats, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style").Remove()

	rows := doc.Find("tr")
	stats.TotalRows = rows.Length()

	var records []Record
	rows.Each(func(i int, row *goquery.Selection) {
		if i < s.selectors.HeaderRows {
			return
		}

		cells := row.Find("td")
		if cells.Length() < s.selectors.MinCells {
			stats.Malformed++
			return
		}

		texts := make([]string, 0, ColumnCount)
		cells.EachWithBreak(func(j int, cell *goquery.Selection) bool {
			texts = append(texts, s.clean(cell.Text()))
			return j+1 < ColumnCount
		})

		record := MapRow(texts)
		if !s.IsValid(record) {
			stats.Invalid++
			return
		}

		records = append(records, record)
	})

	stats.Valid = len(records)
	return records, stats, nil
}

// MapRow maps the first ColumnCount cells onto a Record. Short rows are
// mapped partially.
func MapRow(cells []string) Record {
	var r Record
	for i := 0; i < len(cells) && i < ColumnCount; i++ {
		r[i] = cells[i]
	}
	return r
}

// IsValid reports whether r carries a usable registration number.
func (s *Scraper) IsValid(r Record) bool {
	key := r.RegistrationNumber()
	if key == "" {
		return false
	}
	for _, sentinel := range s.selectors.Sentinels {
		if key == sentinel {
			return false
		}
	}
	return true
}
