package dto

// Sentiment labels stored on articles and analysis rows.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentResult is one model's verdict on one text: a polarity score
// in [-1,1], a label, and a confidence in [0,1].
type SentimentResult struct {
	Score      float64 `json:"sentiment_score"`
	Label      string  `json:"sentiment_label"`
	Confidence float64 `json:"confidence_score"`
}
