package sentiment

import (
	"context"
	"math"
	"strings"

	"stock-tracker/internal/tracker/dto"
)

// ModelLexicon is the valence-lexicon scorer.
const ModelLexicon = "lexicon"

// valenceLexicon maps lowercase tokens to a valence in [-4,4], the
// conventional range for valence dictionaries.
var valenceLexicon = map[string]float64{
	"surge": 2.6, "surges": 2.6, "soar": 2.8, "soars": 2.8,
	"rally": 2.2, "rallies": 2.2, "jump": 1.8, "jumps": 1.8,
	"gain": 1.8, "gains": 1.8, "rise": 1.5, "rises": 1.5,
	"climb": 1.5, "climbs": 1.5, "boost": 1.9, "boosts": 1.9,
	"record": 1.4, "strong": 2.0, "stronger": 2.2, "robust": 1.9,
	"beat": 1.7, "beats": 1.7, "exceed": 1.8, "exceeds": 1.8,
	"growth": 1.9, "profit": 2.0, "profits": 2.0, "profitable": 2.2,
	"upgrade": 1.8, "upgraded": 1.8, "outperform": 2.1, "bullish": 2.4,
	"success": 2.3, "successful": 2.3, "win": 2.0, "wins": 2.0,
	"optimistic": 1.9, "positive": 1.8, "improve": 1.6, "improves": 1.6,
	"improved": 1.6, "expand": 1.4, "expands": 1.4, "recovery": 1.5,
	"good": 1.9, "great": 3.1, "excellent": 3.2, "impressive": 2.3,

	"plummet": -2.9, "plummets": -2.9, "plunge": -2.7, "plunges": -2.7,
	"crash": -3.0, "crashes": -3.0, "tumble": -2.3, "tumbles": -2.3,
	"slump": -2.2, "slumps": -2.2, "drop": -1.7, "drops": -1.7,
	"fall": -1.6, "falls": -1.6, "decline": -1.8, "declines": -1.8,
	"loss": -2.1, "losses": -2.1, "lose": -2.0, "loses": -2.0,
	"weak": -1.9, "weaker": -2.1, "poor": -2.2, "worse": -2.4,
	"miss": -1.7, "misses": -1.7, "missed": -1.7, "fail": -2.4,
	"fails": -2.4, "failed": -2.4, "failure": -2.5, "bearish": -2.4,
	"downgrade": -1.9, "downgraded": -1.9, "underperform": -2.1,
	"recession": -2.6, "crisis": -2.8, "risk": -1.3, "risks": -1.3,
	"concern": -1.4, "concerns": -1.4, "worry": -1.8, "worries": -1.8,
	"fear": -2.2, "fears": -2.2, "disappointing": -2.3, "disappoint": -2.2,
	"disappoints": -2.2, "warning": -1.8, "warn": -1.7, "warns": -1.7,
	"lawsuit": -1.9, "fraud": -3.1, "bankruptcy": -3.3, "layoff": -2.3,
	"layoffs": -2.3, "delay": -1.4, "delays": -1.4, "bad": -2.5,
	"negative": -1.8, "volatile": -1.3, "uncertainty": -1.5,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true,
	"nor": true, "cannot": true, "without": true, "hardly": true,
}

var boosters = map[string]float64{
	"very": 0.293, "extremely": 0.293, "incredibly": 0.293,
	"significantly": 0.293, "sharply": 0.293, "strongly": 0.293,
	"slightly": -0.293, "somewhat": -0.293, "marginally": -0.293,
}

type lexiconScorer struct{}

// NewLexiconScorer creates the valence-lexicon scorer. It is stateless
// and safe for concurrent use.
func NewLexiconScorer() Scorer {
	return &lexiconScorer{}
}

func (s *lexiconScorer) Model() string {
	return ModelLexicon
}

func (s *lexiconScorer) Score(_ context.Context, text string) (dto.SentimentResult, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return neutralResult(), nil
	}

	tokens := tokenize(cleaned)
	var sum, posSum, negSum float64
	for i, token := range tokens {
		valence, ok := valenceLexicon[token]
		if !ok {
			continue
		}
		// look back up to two tokens for negations and boosters
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			if negations[tokens[j]] {
				valence = -valence * 0.74
				break
			}
			if boost, ok := boosters[tokens[j]]; ok {
				if valence > 0 {
					valence += boost
				} else {
					valence -= boost
				}
			}
		}
		sum += valence
		if valence > 0 {
			posSum += valence
		} else {
			negSum += -valence
		}
	}

	// normalize the valence sum into [-1,1]
	compound := sum / math.Sqrt(sum*sum+15)

	confidence := 0.0
	if total := posSum + negSum; total > 0 {
		confidence = math.Max(posSum, negSum) / total
	}

	result := dto.SentimentResult{
		Score:      round4(compound),
		Label:      LabelForScore(compound),
		Confidence: round4(confidence),
	}
	return AdjustFinancial(text, result), nil
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.Trim(field, ".,;:!?\"'()[]{}")
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
