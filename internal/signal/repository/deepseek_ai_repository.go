package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crypto-signal-engine/internal/indicator"
	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/pkg/logger"

	"golang.org/x/time/rate"
)

type deepSeekAIRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

// NewDeepSeekAIRepository creates an AIRepository backed by the DeepSeek
// chat-completion API.
func NewDeepSeekAIRepository(cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	requestLimiter := newRequestLimiter(cfg.DeepSeek.MaxRequestPerMinute, 10)

	timeout, err := time.ParseDuration(cfg.DeepSeek.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid deepseek timeout: %w", err)
	}

	return &deepSeekAIRepository{
		client: &http.Client{
			Timeout: timeout,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}, nil
}

func (r *deepSeekAIRepository) ProposeSignal(ctx context.Context, coin string, snapshot *indicator.Snapshot, metrics *dto.GlobalMetrics, performance *dto.PerformanceSummary) (*dto.SignalProposal, error) {
	prompt := BuildSignalPrompt(coin, snapshot, metrics, performance)

	resp, err := r.sendRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	proposal := dto.SignalProposal{}
	if err := r.parseResponseJSON(resp, &proposal); err != nil {
		return nil, err
	}

	return &proposal, nil
}

func (r *deepSeekAIRepository) sendRequest(ctx context.Context, prompt string) (*dto.DeepSeekResponse, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to wait for request limit", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.DeepSeekRequest{
		Model: r.cfg.DeepSeek.Model,
		Messages: []dto.DeepSeekMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.DeepSeek.BaseURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.cfg.DeepSeek.APIKey))

	r.logger.DebugContext(ctx, "Sending request to DeepSeek API",
		logger.StringField("url", r.cfg.DeepSeek.BaseURL),
		logger.StringField("model", r.cfg.DeepSeek.Model),
	)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to DeepSeek API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.ErrorContext(ctx, "Received non-OK response from DeepSeek API",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("model", r.cfg.DeepSeek.Model),
		)
		return nil, fmt.Errorf("received non-OK response from DeepSeek API: %d - %s", resp.StatusCode, string(body))
	}

	var deepSeekResp dto.DeepSeekResponse
	if err := json.NewDecoder(resp.Body).Decode(&deepSeekResp); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &deepSeekResp, nil
}

func (r *deepSeekAIRepository) parseResponseJSON(resp *dto.DeepSeekResponse, result interface{}) error {
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.Content) == 0 {
		return fmt.Errorf("no content found in DeepSeek response")
	}

	rawJSON := resp.Choices[0].Message.Content
	rawJSON = strings.Trim(rawJSON, "`json\n`")

	if err := json.Unmarshal([]byte(rawJSON), result); err != nil {
		return fmt.Errorf("failed to unmarshal proposal from DeepSeek response: %w", err)
	}

	return nil
}
