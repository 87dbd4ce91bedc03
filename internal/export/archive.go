// Package export turns scraped reviews into downloadable files.
package export

import (
	"bytes"
	"fmt"
	"time"

	"sjsage522/reviewworker/internal/review"

	"github.com/klauspost/compress/zip"
)

// ArchiveName returns the name of the review archive for n reviews
func ArchiveName(n int) string {
	return fmt.Sprintf("reviews_all_%d.zip", n)
}

// BuildArchive packs one text file per review into a ZIP archive. Reviews
// sharing a file name produce a single entry holding the last of them.
// progress, when set, is called after every entry.
func BuildArchive(reviews []review.Review, progress func(done, total int)) ([]byte, error) {
	entries := dedupeByFileName(reviews)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Now()

	for i, r := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     r.FileName(),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create entry %s: %w", r.FileName(), err)
		}
		if _, err := w.Write([]byte(r.Text())); err != nil {
			return nil, fmt.Errorf("failed to write entry %s: %w", r.FileName(), err)
		}
		if progress != nil {
			progress(i+1, len(entries))
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// dedupeByFileName keeps the first position of every file name and the
// content of its last review
func dedupeByFileName(reviews []review.Review) []review.Review {
	index := make(map[string]int, len(reviews))
	entries := make([]review.Review, 0, len(reviews))
	for _, r := range reviews {
		name := r.FileName()
		if i, ok := index[name]; ok {
			entries[i] = r
			continue
		}
		index[name] = len(entries)
		entries = append(entries, r)
	}
	return entries
}
