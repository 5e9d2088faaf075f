// Package checkpoint persists the records accumulated by a run as
// deduplicated, timestamped spreadsheet files.
package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ccr-registry-scraper/internal/checksum"
	"ccr-registry-scraper/internal/config"
	"ccr-registry-scraper/internal/observability"
	"ccr-registry-scraper/internal/scraper"
	"ccr-registry-scraper/internal/storage"
	"ccr-registry-scraper/internal/storage/sheet"
)

// Kind tells why a save happened. Every kind gets its own filename prefix.
type Kind string

const (
	KindFinal       Kind = "final"
	KindCheckpoint  Kind = "checkpoint"
	KindInterrupted Kind = "interrupted"
	KindError       Kind = "error"
)

// Terminal reports whether k ends a run.
func (k Kind) Terminal() bool {
	return k != KindCheckpoint
}

const timestampLayout = "20060102_150405"

// Snapshot is the run state handed to the writer.
type Snapshot struct {
	RunID   string
	Page    int
	Started time.Time
	Records []scraper.Record
}

// Report describes one save.
type Report struct {
	Kind          Kind
	File          string
	Rows          int
	Elapsed       time.Duration
	RatePerMinute float64
	Inserted      int
	Updated       int
}

type Writer struct {
	cfg    *config.Config
	logger *observability.Logger
	sink   storage.Repository
	hasher *checksum.Generator
	now    func() time.Time
}

// NewWriter returns a Writer. sink may be nil; when set, terminal saves are
// also upserted into it.
func NewWriter(cfg *config.Config, logger *observability.Logger, sink storage.Repository) *Writer {
	return &Writer{
		cfg:    cfg,
		logger: logger,
		sink:   sink,
		hasher: checksum.NewGenerator(),
		now:    time.Now,
	}
}

// Save writes the deduplicated snapshot. An empty snapshot writes nothing and
// returns a nil report.
func (w *Writer) Save(ctx context.Context, kind Kind, snap Snapshot) (*Report, error) {
	if len(snap.Records) == 0 {
		w.logger.Warn("No data to save", "kind", string(kind), "page", snap.Page)
		return nil, nil
	}

	records := Dedupe(snap.Records)
	now := w.now()

	path := w.path(kind, snap.Page, now)
	format := sheet.Format(w.cfg.Output.Format)

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}

	if err := sheet.Write(path, format, scraper.Headers(), rows); err != nil {
		return nil, fmt.Errorf("failed to save %s file: %w", kind, err)
	}

	report := &Report{
		Kind:    kind,
		File:    path,
		Rows:    len(records),
		Elapsed: now.Sub(snap.Started),
	}
	if minutes := report.Elapsed.Minutes(); minutes > 0 {
		report.RatePerMinute = float64(report.Rows) / minutes
	}

	w.logger.Info("Data saved",
		"kind", string(kind),
		"file", path,
		"rows", report.Rows,
		"duplicates_dropped", len(snap.Records)-len(records),
		"page", snap.Page,
		"elapsed", report.Elapsed.Round(time.Second),
		"records_per_minute", fmt.Sprintf("%.1f", report.RatePerMinute),
	)

	if w.sink == nil || !kind.Terminal() {
		return report, nil
	}

	// the run context may already be cancelled on interrupt
	if err := w.upsert(context.WithoutCancel(ctx), snap.RunID, records, report); err != nil {
		return report, err
	}

	return report, nil
}

func (w *Writer) upsert(ctx context.Context, runID string, records []scraper.Record, report *Report) error {
	var (
		failed   int
		firstErr error
	)

	for _, r := range records {
		rec := storage.FromRecord(r, runID, w.hasher.GenerateRecordHash(r))
		isNew, isUpdated, err := w.sink.UpsertRecord(ctx, rec)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if isNew {
			report.Inserted++
		}
		if isUpdated {
			report.Updated++
		}
	}

	fields := []interface{}{
		"inserted", report.Inserted,
		"updated", report.Updated,
		"unchanged", len(records) - report.Inserted - report.Updated - failed,
		"failed", failed,
	}
	if total, err := w.sink.GetRecordCount(ctx); err == nil {
		fields = append(fields, "table_rows", total)
	}
	w.logger.Info("Records stored", fields...)

	if firstErr != nil {
		return fmt.Errorf("database sink: %d of %d records failed: %w", failed, len(records), firstErr)
	}
	return nil
}

// path builds a filename that no earlier save of this run can share.
func (w *Writer) path(kind Kind, page int, now time.Time) string {
	name := Filename(w.cfg.Output.Filename, sheet.Format(w.cfg.Output.Format), kind, page, now)
	path := filepath.Join(w.cfg.Output.Dir, name)

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; fileExists(path); i++ {
		path = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	return path
}

// Filename expands the output template. {kind} becomes the kind tag ("final",
// "checkpoint_page10", ...) and {date} the timestamp. Non-final saves get the
// tag prepended when the template has no {kind}.
func Filename(template string, format sheet.Format, kind Kind, page int, now time.Time) string {
	tag := string(kind)
	if kind != KindFinal {
		tag = fmt.Sprintf("%s_page%d", kind, page)
	}

	name := template
	switch {
	case strings.Contains(name, "{kind}"):
		name = strings.ReplaceAll(name, "{kind}", tag)
	case kind != KindFinal:
		name = tag + "_" + name
	}

	ts := now.Format(timestampLayout)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if strings.Contains(stem, "{date}") {
		stem = strings.ReplaceAll(stem, "{date}", ts)
	} else {
		stem = stem + "_" + ts
	}

	return stem + format.Ext()
}

// Dedupe keeps the first record seen for every registration number.
func Dedupe(records []scraper.Record) []scraper.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]scraper.Record, 0, len(records))
	for _, r := range records {
		key := r.RegistrationNumber()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
