package sentiment

import (
	"testing"

	"stock-tracker/internal/tracker/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func geminiResponseWithText(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func TestParseGeminiResponse(t *testing.T) {
	resp := geminiResponseWithText("```json\n{\"sentiment_score\": 0.72, \"sentiment_label\": \"positive\", \"confidence_score\": 0.85}\n```")

	result, err := parseGeminiResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, 0.72, result.Score)
	assert.Equal(t, dto.SentimentPositive, result.Label)
	assert.Equal(t, 0.85, result.Confidence)
}

func TestParseGeminiResponseOverridesLabel(t *testing.T) {
	// the remote label must follow the score thresholds
	resp := geminiResponseWithText(`{"sentiment_score": 0.05, "sentiment_label": "positive", "confidence_score": 0.9}`)

	result, err := parseGeminiResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, dto.SentimentNeutral, result.Label)
}

func TestParseGeminiResponseRejectsOutOfRange(t *testing.T) {
	resp := geminiResponseWithText(`{"sentiment_score": 3.5, "sentiment_label": "positive", "confidence_score": 0.9}`)

	_, err := parseGeminiResponse(resp)
	require.Error(t, err)
}

func TestParseGeminiResponseEmpty(t *testing.T) {
	_, err := parseGeminiResponse(&genai.GenerateContentResponse{})
	require.Error(t, err)
}
