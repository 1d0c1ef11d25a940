package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ModelGemini is the remote LLM scorer.
const ModelGemini = "gemini"

const geminiPromptTemplate = `You are a financial news sentiment analyzer.
Score the sentiment of the following article text for an investor.

Respond with ONLY a JSON object in this exact format:
{"sentiment_score": <float between -1.0 and 1.0>, "sentiment_label": "<positive|negative|neutral>", "confidence_score": <float between 0.0 and 1.0>}

Article text:
%s`

// truncate long articles, the score converges well before this point
const geminiMaxInputChars = 8000

type geminiScorer struct {
	cfg            *config.Config
	log            *logger.Logger
	client         *genai.Client
	requestLimiter *rate.Limiter
}

// NewGeminiScorer creates the remote Gemini scorer.
func NewGeminiScorer(cfg *config.Config, log *logger.Logger) (Scorer, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.Configuration, err, "initialize gemini client")
	}
	return &geminiScorer{
		cfg:            cfg,
		log:            log,
		client:         client,
		requestLimiter: rate.NewLimiter(rate.Every(6*time.Second), 1),
	}, nil
}

func (s *geminiScorer) Model() string {
	return ModelGemini
}

func (s *geminiScorer) Score(ctx context.Context, text string) (dto.SentimentResult, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return neutralResult(), nil
	}
	if len(cleaned) > geminiMaxInputChars {
		cleaned = cleaned[:geminiMaxInputChars]
	}

	if err := s.requestLimiter.Wait(ctx); err != nil {
		return dto.SentimentResult{}, err
	}

	prompt := fmt.Sprintf(geminiPromptTemplate, cleaned)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return dto.SentimentResult{}, apperror.Wrap(apperror.TransientProvider, err, "gemini request failed")
	}

	result, err := parseGeminiResponse(resp)
	if err != nil {
		return dto.SentimentResult{}, err
	}

	s.log.DebugContext(ctx, "Gemini sentiment scored",
		logger.Float64Field("score", result.Score),
		logger.StringField("label", result.Label),
	)
	return result, nil
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (dto.SentimentResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return dto.SentimentResult{}, apperror.New(apperror.PermanentProvider, "no content in gemini response")
	}

	jsonString := resp.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	var result dto.SentimentResult
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return dto.SentimentResult{}, apperror.Wrap(apperror.PermanentProvider, err, "unmarshal gemini sentiment")
	}
	if result.Score < -1 || result.Score > 1 {
		return dto.SentimentResult{}, apperror.Newf(apperror.PermanentProvider, "gemini score %f out of range", result.Score)
	}
	// never trust the remote label over the score thresholds
	result.Label = LabelForScore(result.Score)
	return result, nil
}
