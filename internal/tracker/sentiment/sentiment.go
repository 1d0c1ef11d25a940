// Package sentiment scores financial news text. Each Scorer produces a
// polarity score in [-1,1], a label, and a confidence in [0,1]; every
// score passes through a financial-keyword adjustment before labeling.
package sentiment

import (
	"context"
	"regexp"
	"strings"

	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"
)

// Scorer analyzes one text with one model.
type Scorer interface {
	Model() string
	Score(ctx context.Context, text string) (dto.SentimentResult, error)
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	urlPattern        = regexp.MustCompile(`https?://[^\s]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanText strips HTML tags and URLs and collapses whitespace.
func CleanText(text string) string {
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var positiveFinancialWords = []string{
	"profit", "growth", "increase", "rise", "gain", "bull", "bullish",
	"upgrade", "beat", "exceed", "strong", "robust", "outperform",
}

var negativeFinancialWords = []string{
	"loss", "decline", "decrease", "fall", "drop", "bear", "bearish",
	"downgrade", "miss", "weak", "poor", "underperform", "recession",
}

// AdjustFinancial shifts a raw model score by 0.1 per financial keyword
// present in the text, clamped to [-1,1], and relabels the result.
func AdjustFinancial(text string, result dto.SentimentResult) dto.SentimentResult {
	textLower := strings.ToLower(text)

	adjustment := 0.0
	for _, word := range positiveFinancialWords {
		if strings.Contains(textLower, word) {
			adjustment += 0.1
		}
	}
	for _, word := range negativeFinancialWords {
		if strings.Contains(textLower, word) {
			adjustment -= 0.1
		}
	}

	score := clamp(result.Score+adjustment, -1, 1)
	return dto.SentimentResult{
		Score:      score,
		Label:      LabelForScore(score),
		Confidence: result.Confidence,
	}
}

// LabelForScore maps a score to a label. Scores in [-0.1, 0.1] are
// neutral.
func LabelForScore(score float64) string {
	switch {
	case score > 0.1:
		return dto.SentimentPositive
	case score < -0.1:
		return dto.SentimentNegative
	default:
		return dto.SentimentNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func neutralResult() dto.SentimentResult {
	return dto.SentimentResult{Score: 0, Label: dto.SentimentNeutral, Confidence: 0}
}

// NewScorers builds the configured model set. The gemini model needs an
// API key, which Validate has already checked.
func NewScorers(cfg *config.Config, log *logger.Logger) ([]Scorer, error) {
	scorers := make([]Scorer, 0, len(cfg.Sentiment.Models))
	for _, model := range cfg.Sentiment.Models {
		switch model {
		case ModelLexicon:
			scorers = append(scorers, NewLexiconScorer())
		case ModelPattern:
			scorers = append(scorers, NewPatternScorer())
		case ModelGemini:
			scorer, err := NewGeminiScorer(cfg, log)
			if err != nil {
				return nil, err
			}
			scorers = append(scorers, scorer)
		default:
			return nil, apperror.Newf(apperror.Configuration, "unknown sentiment model %q", model)
		}
	}
	return scorers, nil
}
