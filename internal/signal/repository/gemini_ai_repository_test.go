package repository

import (
	"testing"
	"time"

	"crypto-signal-engine/internal/signal/config"
	"crypto-signal-engine/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New("error", "json")
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return l
}

func TestNewGeminiAIRepository_Timeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{name: "configured", timeout: "45s", want: 45 * time.Second},
		{name: "default when unset", timeout: "", want: 60 * time.Second},
		{name: "invalid", timeout: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Gemini.Timeout = tt.timeout

			repo, err := NewGeminiAIRepository(cfg, newTestLogger(t), nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid gemini timeout")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, repo.(*geminiAIRepository).timeout)
		})
	}
}

func TestNewRequestLimiter(t *testing.T) {
	// 30 requests per minute spaces requests two seconds apart.
	limiter := newRequestLimiter(30, 60)
	assert.Equal(t, rate.Every(2*time.Second), limiter.Limit())

	// An unset cap falls back to the default instead of dividing by zero.
	limiter = newRequestLimiter(0, 60)
	assert.Equal(t, rate.Every(time.Second), limiter.Limit())

	limiter = newRequestLimiter(-5, 10)
	assert.Equal(t, rate.Every(6*time.Second), limiter.Limit())
}
