package sentiment

import (
	"context"

	"stock-tracker/internal/tracker/dto"
)

// ModelPattern is the polarity/subjectivity scorer.
const ModelPattern = "pattern"

// wordSentiment pairs a polarity in [-1,1] with a subjectivity in [0,1].
type wordSentiment struct {
	polarity     float64
	subjectivity float64
}

// patternLexicon maps lowercase tokens to polarity and subjectivity.
// Objective words (low subjectivity) yield high-confidence scores.
var patternLexicon = map[string]wordSentiment{
	"strong": {0.6, 0.7}, "stronger": {0.7, 0.7}, "robust": {0.5, 0.6},
	"good": {0.7, 0.6}, "great": {0.8, 0.75}, "excellent": {1.0, 1.0},
	"impressive": {0.8, 0.9}, "positive": {0.3, 0.4}, "record": {0.4, 0.3},
	"profitable": {0.6, 0.4}, "successful": {0.7, 0.7}, "optimistic": {0.5, 0.8},
	"beat": {0.5, 0.4}, "exceed": {0.5, 0.4}, "exceeds": {0.5, 0.4},
	"growth": {0.4, 0.3}, "gain": {0.4, 0.3}, "gains": {0.4, 0.3},
	"rise": {0.3, 0.2}, "rises": {0.3, 0.2}, "surge": {0.5, 0.4},
	"surges": {0.5, 0.4}, "rally": {0.4, 0.4}, "upgrade": {0.4, 0.3},
	"stable": {0.2, 0.3}, "improved": {0.4, 0.4}, "recovery": {0.3, 0.3},

	"weak": {-0.5, 0.6}, "weaker": {-0.6, 0.6}, "poor": {-0.6, 0.65},
	"bad": {-0.7, 0.65}, "worse": {-0.7, 0.7}, "disappointing": {-0.65, 0.8},
	"negative": {-0.3, 0.4}, "loss": {-0.5, 0.3}, "losses": {-0.5, 0.3},
	"decline": {-0.4, 0.3}, "declines": {-0.4, 0.3}, "fall": {-0.3, 0.2},
	"falls": {-0.3, 0.2}, "drop": {-0.35, 0.25}, "drops": {-0.35, 0.25},
	"plummet": {-0.7, 0.5}, "plummets": {-0.7, 0.5}, "plunge": {-0.65, 0.5},
	"crash": {-0.8, 0.6}, "miss": {-0.4, 0.3}, "misses": {-0.4, 0.3},
	"missed": {-0.4, 0.3}, "fail": {-0.6, 0.5}, "failed": {-0.6, 0.5},
	"failure": {-0.65, 0.55}, "downgrade": {-0.4, 0.3}, "crisis": {-0.7, 0.5},
	"recession": {-0.5, 0.3}, "risk": {-0.25, 0.4}, "concern": {-0.3, 0.5},
	"concerns": {-0.3, 0.5}, "fear": {-0.55, 0.7}, "fears": {-0.55, 0.7},
	"warning": {-0.4, 0.4}, "uncertain": {-0.3, 0.6}, "uncertainty": {-0.3, 0.6},
	"volatile": {-0.3, 0.5}, "delay": {-0.3, 0.3}, "delays": {-0.3, 0.3},
	"lawsuit": {-0.4, 0.3}, "fraud": {-0.8, 0.5}, "bankruptcy": {-0.9, 0.4},
}

type patternScorer struct{}

// NewPatternScorer creates the polarity/subjectivity scorer. It is
// stateless and safe for concurrent use.
func NewPatternScorer() Scorer {
	return &patternScorer{}
}

func (s *patternScorer) Model() string {
	return ModelPattern
}

func (s *patternScorer) Score(_ context.Context, text string) (dto.SentimentResult, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return neutralResult(), nil
	}

	tokens := tokenize(cleaned)
	var polaritySum, subjectivitySum float64
	matched := 0
	for i, token := range tokens {
		ws, ok := patternLexicon[token]
		if !ok {
			continue
		}
		polarity := ws.polarity
		if i > 0 && negations[tokens[i-1]] {
			polarity = -polarity * 0.5
		}
		polaritySum += polarity
		subjectivitySum += ws.subjectivity
		matched++
	}
	if matched == 0 {
		return neutralResult(), nil
	}

	polarity := polaritySum / float64(matched)
	subjectivity := subjectivitySum / float64(matched)

	result := dto.SentimentResult{
		Score: round4(polarity),
		Label: LabelForScore(polarity),
		// subjective text scores are less trustworthy
		Confidence: round4(1 - subjectivity),
	}
	return AdjustFinancial(text, result), nil
}
