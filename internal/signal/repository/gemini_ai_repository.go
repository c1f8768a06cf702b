package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/pkg/logger"

	"google.golang.org/genai"
)

type geminiAIRepository struct {
	cfg         *config.Config
	logger      *logger.Logger
	genAiClient *genai.Client
	timeout     time.Duration
}

// NewGeminiAIRepository creates an AIRepository backed by the Google Gemini
// API.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (AIRepository, error) {
	timeout := 60 * time.Second
	if cfg.Gemini.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Gemini.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid gemini timeout: %w", err)
		}
		timeout = parsed
	}

	return &geminiAIRepository{
		cfg:         cfg,
		logger:      log,
		genAiClient: genAiClient,
		timeout:     timeout,
	}, nil
}

func (r *geminiAIRepository) ProposeSignal(ctx context.Context, coin string, snapshot *indicator.Snapshot, metrics *dto.GlobalMetrics, performance *dto.PerformanceSummary) (*dto.SignalProposal, error) {
	prompt := BuildSignalPrompt(coin, snapshot, metrics, performance)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	r.logger.DebugContext(ctx, "Sending request to Gemini API", logger.StringField("model", r.cfg.Gemini.Model))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}

	proposal, err := r.parseGeminiResponse(resp)
	if err != nil {
		return nil, err
	}

	return proposal, nil
}

func (r *geminiAIRepository) parseGeminiResponse(resp *genai.GenerateContentResponse) (*dto.SignalProposal, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content found in Gemini response")
	}

	rawJSON := resp.Candidates[0].Content.Parts[0].Text
	rawJSON = strings.Trim(rawJSON, "`json\n`")

	var proposal dto.SignalProposal
	if err := json.Unmarshal([]byte(rawJSON), &proposal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proposal from Gemini response: %w", err)
	}

	return &proposal, nil
}
