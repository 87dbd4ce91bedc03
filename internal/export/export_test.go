package export

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"sjsage522/reviewworker/internal/review"
	crawlerrors "sjsage522/reviewworker/pkg/errors"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReviews() []review.Review {
	return []review.Review{
		{ModelID: "M1", ReviewID: "R1", Star: "5.0", Message: "좋아요"},
		{ModelID: "M1", ReviewID: "R2", Star: "3.0", Message: "보통", Ratings: []review.Rating{{Name: "소음", Value: "보통"}}},
	}
}

func TestBuildArchive(t *testing.T) {
	reviews := sampleReviews()
	var calls []int
	data, err := BuildArchive(reviews, func(done, total int) {
		calls = append(calls, done)
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "M1_R1.txt", zr.File[0].Name)
	assert.Equal(t, "M1_R2.txt", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, reviews[1].Text(), string(body))
}

func TestBuildArchiveDuplicateFileNames(t *testing.T) {
	reviews := append(sampleReviews(), review.Review{ModelID: "M1", ReviewID: "R1", Star: "1.0", Message: "다시 씀"})
	var calls []int
	data, err := BuildArchive(reviews, func(done, total int) {
		calls = append(calls, done)
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "M1_R1.txt", zr.File[0].Name)
	assert.Equal(t, "M1_R2.txt", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, reviews[2].Text(), string(body))
}

func TestBuildArchiveEmpty(t *testing.T) {
	data, err := BuildArchive(nil, nil)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
	assert.Equal(t, "reviews_all_0.zip", ArchiveName(0))
}

func TestBuildWorkbook(t *testing.T) {
	summary := review.Summary{ModelName: "M1", ReviewCount: "2", Score: "4.0", Keywords: []string{"- 예뻐요 90%"}}
	data, err := BuildWorkbook(summary, sampleReviews())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reviewSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Model ID", rows[0][0])
	assert.Equal(t, "R2", rows[2][1])
	assert.Equal(t, "소음: 보통", rows[2][4])

	modelName, err := f.GetCellValue(summarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "M1", modelName)
	assert.Equal(t, "M1.xlsx", WorkbookName(summary))
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewDirSink(dir)

	require.NoError(t, sink.Write(context.Background(), "a/b.txt", []byte("first")))
	require.NoError(t, sink.Write(context.Background(), "a/b.txt", []byte("second")))

	data, err := os.ReadFile(filepath.Join(dir, "a_b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Write(ctx, "c.txt", nil), context.Canceled)
}

// memorySink keeps written files in memory
type memorySink struct {
	files map[string][]byte
	err   error
}

func (m *memorySink) Write(ctx context.Context, name string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.files[name] = data
	return nil
}

func TestExporter(t *testing.T) {
	sink := &memorySink{files: map[string][]byte{}}
	exporter := NewExporter(sink, true)
	summary := review.Summary{ModelName: "M1"}

	name, err := exporter.ExportReviews(context.Background(), sampleReviews())
	require.NoError(t, err)
	assert.Equal(t, "reviews_all_2.zip", name)

	name, err = exporter.ExportSummary(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "M1.txt", name)
	assert.Equal(t, summary.Text(), string(sink.files["M1.txt"]))

	name, err = exporter.ExportWorkbook(context.Background(), summary, sampleReviews())
	require.NoError(t, err)
	assert.Equal(t, "M1.xlsx", name)
	assert.Len(t, sink.files, 3)
}

func TestExporterWorkbookDisabled(t *testing.T) {
	sink := &memorySink{files: map[string][]byte{}}
	name, err := NewExporter(sink, false).ExportWorkbook(context.Background(), review.Summary{}, nil)
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, sink.files)
}

func TestExporterSinkError(t *testing.T) {
	sink := &memorySink{files: map[string][]byte{}, err: os.ErrPermission}
	_, err := NewExporter(sink, false).ExportReviews(context.Background(), sampleReviews())
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.True(t, crawlerrors.IsType(err, crawlerrors.ErrorTypeExport))
}
