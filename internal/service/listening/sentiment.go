// internal/service/listening/sentiment.go

package listening

import (
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonreiter/govader"
)

// VaderScorer scores text with the VADER lexicon. The compound score is used
// as polarity.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
	logger   *slog.Logger
}

// NewVaderScorer creates a scorer backed by the bundled VADER lexicon
func NewVaderScorer(logger *slog.Logger) *VaderScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &VaderScorer{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
		logger:   logger,
	}
}

// Score returns the polarity of text in [-1, 1]. Empty text, invalid UTF-8 and
// analyzer failures all score 0.
func (s *VaderScorer) Score(text string) (score float64) {
	if strings.TrimSpace(text) == "" || !utf8.ValidString(text) {
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("sentiment analysis failed", "error", r, "text_len", len(text))
			score = 0
		}
	}()

	return clampPolarity(s.analyzer.PolarityScores(text).Compound)
}

func clampPolarity(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
