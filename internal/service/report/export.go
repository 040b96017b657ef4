// internal/service/report/export.go

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sentiscan/internal/domain/mention"
)

// Columns is the stable column order of the export
var Columns = []string{
	"type",
	"subreddit",
	"title",
	"text",
	"score",
	"created_utc",
	"url",
	"num_comments",
	"sentiment",
}

// TimestampLayout formats created_utc in the export
const TimestampLayout = "2006-01-02 15:04:05"

// FileName returns "<prefix>_<YYYYMMDD_HHMMSS>.csv" for the given time
func FileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, t.Format("20060102_150405"))
}

// CSVSink writes datasets as UTF-8 CSV files into a directory
type CSVSink struct {
	Dir string
}

// NewCSVSink creates a sink rooted at dir; an empty dir means the working
// directory
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{Dir: dir}
}

// Write writes one row per record and returns the file path
func (s *CSVSink) Write(records []mention.Record, filename string) (string, error) {
	path := filename
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
		path = filepath.Join(s.Dir, filename)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		if err := w.Write(row(r)); err != nil {
			return "", fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	return path, nil
}

func row(r mention.Record) []string {
	return []string{
		string(r.Kind),
		r.Category,
		r.Title,
		r.Text,
		strconv.Itoa(r.Score),
		r.CreatedAt.UTC().Format(TimestampLayout),
		r.URL,
		strconv.Itoa(r.NumComments),
		strconv.FormatFloat(r.Sentiment, 'f', -1, 64),
	}
}
