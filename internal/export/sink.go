package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"sjsage522/reviewworker/helpers"
	"sjsage522/reviewworker/internal/review"
	"sjsage522/reviewworker/logger"
	crawlerrors "sjsage522/reviewworker/pkg/errors"
)

// Sink accepts a named bundle of bytes and offers it to the user
type Sink interface {
	Write(ctx context.Context, name string, data []byte) error
}

// DirSink writes files into a directory
type DirSink struct {
	Dir string
}

// NewDirSink creates a sink rooted at dir
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Write stores data as dir/name, replacing any previous file
func (s *DirSink) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, helpers.SanitizeFileName(name))
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// Exporter builds the export files and hands them to a sink
type Exporter struct {
	sink     Sink
	workbook bool
	log      *logger.Logger
}

// NewExporter creates an exporter. workbook enables the XLSX export.
func NewExporter(sink Sink, workbook bool) *Exporter {
	return &Exporter{sink: sink, workbook: workbook, log: logger.ForExporter()}
}

// ExportReviews writes the review archive and returns its name
func (e *Exporter) ExportReviews(ctx context.Context, reviews []review.Review) (string, error) {
	name := ArchiveName(len(reviews))
	e.log.Info().Int("reviews", len(reviews)).Msg("Building review archive")

	data, err := BuildArchive(reviews, func(done, total int) {
		if done%50 == 0 {
			e.log.Debug().Int("done", done).Int("total", total).Msg("Archive progress")
		}
	})
	if err != nil {
		return "", crawlerrors.NewExport(name, "build archive", err)
	}
	if err := e.sink.Write(ctx, name, data); err != nil {
		return "", crawlerrors.NewExport(name, "write archive", err)
	}

	e.log.Info().Str("file", name).Int("bytes", len(data)).Msg("Review archive exported")
	return name, nil
}

// ExportSummary writes the summary text file and returns its name
func (e *Exporter) ExportSummary(ctx context.Context, summary review.Summary) (string, error) {
	name := summary.FileName()
	if err := e.sink.Write(ctx, name, []byte(summary.Text())); err != nil {
		return "", crawlerrors.NewExport(name, "write summary", err)
	}
	e.log.Info().Str("file", name).Msg("Review summary exported")
	return name, nil
}

// ExportWorkbook writes the XLSX workbook when enabled. It returns an empty
// name when the workbook export is disabled.
func (e *Exporter) ExportWorkbook(ctx context.Context, summary review.Summary, reviews []review.Review) (string, error) {
	if !e.workbook {
		return "", nil
	}
	name := WorkbookName(summary)
	data, err := BuildWorkbook(summary, reviews)
	if err != nil {
		return "", crawlerrors.NewExport(name, "build workbook", err)
	}
	if err := e.sink.Write(ctx, name, data); err != nil {
		return "", crawlerrors.NewExport(name, "write workbook", err)
	}
	e.log.Info().Str("file", name).Msg("Review workbook exported")
	return name, nil
}
