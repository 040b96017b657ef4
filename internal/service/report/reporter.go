// internal/service/report/reporter.go

package report

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"sentiscan/internal/domain/mention"
)

// ReporterConfig contains configuration for the reporter
type ReporterConfig struct {
	Prefix      string
	PreviewSize int
}

// Result is the outcome of reporting a non-empty dataset
type Result struct {
	Summary  Summary
	FileName string
	Path     string
}

// Reporter summarizes a dataset, prints the summary and exports the records
type Reporter struct {
	sink   mention.Sink
	out    io.Writer
	config ReporterConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewReporter creates a new reporter
func NewReporter(sink mention.Sink, out io.Writer, config ReporterConfig, logger *slog.Logger) *Reporter {
	if config.PreviewSize <= 0 {
		config.PreviewSize = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		sink:   sink,
		out:    out,
		config: config,
		now:    time.Now,
		logger: logger,
	}
}

// Report prints a summary of records and exports them. An empty dataset
// yields ErrNoResults and writes no file.
func (r *Reporter) Report(records []mention.Record) (Result, error) {
	if len(records) == 0 {
		fmt.Fprintln(r.out, "No relevant mentions found")
		return Result{}, mention.ErrNoResults
	}

	summary := Summarize(records, r.config.PreviewSize)
	r.print(summary)

	filename := FileName(r.config.Prefix, r.now())
	path, err := r.sink.Write(records, filename)
	if err != nil {
		return Result{Summary: summary}, fmt.Errorf("export %s: %w", filename, err)
	}

	fmt.Fprintf(r.out, "\nResults saved to %s\n", path)
	r.logger.Info("dataset exported", "path", path, "records", len(records))

	return Result{
		Summary:  summary,
		FileName: filename,
		Path:     path,
	}, nil
}

func (r *Reporter) print(s Summary) {
	fmt.Fprintln(r.out, "\nAnalysis results:")
	fmt.Fprintf(r.out, "Total relevant mentions found: %d\n", s.Total)
	fmt.Fprintf(r.out, "Average sentiment score: %.2f\n", Round2(s.MeanSentiment))

	fmt.Fprintln(r.out, "\nBreakdown by type:")
	r.printGroups("type", s.ByKind)

	fmt.Fprintln(r.out, "\nBreakdown by subreddit:")
	r.printGroups("subreddit", s.ByCategory)

	if len(s.Preview) == 0 {
		return
	}

	fmt.Fprintln(r.out, "\nSample posts:")
	for _, p := range s.Preview {
		fmt.Fprintf(r.out, "\nTitle: %s\n", p.Title)
		fmt.Fprintf(r.out, "Sentiment: %.2f\n", Round2(p.Sentiment))
		fmt.Fprintf(r.out, "URL: %s\n", p.URL)
	}
}

func (r *Reporter) printGroups(label string, groups []GroupStat) {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tcount\tmean\n", label)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", g.Key, g.Count, Round2(g.MeanSentiment))
	}
	tw.Flush()
}
