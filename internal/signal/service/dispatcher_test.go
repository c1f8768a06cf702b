package service

import (
	"context"
	"sync"
	"testing"

	"crypto-signal-engine/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) SendMessage(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *captureNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func TestPriceMoveExceeds(t *testing.T) {
	tests := []struct {
		name      string
		base      float64
		price     float64
		threshold float64
		want      bool
	}{
		{"unchanged price stays quiet", 100, 100, 1.0, false},
		{"move below threshold stays quiet", 100, 100.5, 1.0, false},
		{"move at threshold fires", 100, 101, 1.0, true},
		{"move above threshold fires", 100, 103, 1.0, true},
		{"downward move counts too", 100, 98.5, 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, priceMoveExceeds(tt.base, tt.price, tt.threshold))
		})
	}
}

func TestDispatcher_ZeroThresholdDisablesResends(t *testing.T) {
	d := NewDispatcher(newTestLogger(t), &captureNotifier{}, newTestRedis(), 0)
	defer d.Close()

	assert.False(t, d.(*dispatcher).shouldResend(context.Background(), "signal_alert:x:TP1", 200))
}

func TestDispatcher_AlertSentWhenDedupeUnavailable(t *testing.T) {
	notifier := &captureNotifier{}
	d := NewDispatcher(newTestLogger(t), notifier, newTestRedis(), 1.0)

	signal := &entity.TradingSignal{
		ID:          "sig-1",
		Coin:        "BTC",
		Action:      "BUY",
		EntryPrice:  100,
		TakeProfit1: 102,
		Status:      entity.StatusTP1Hit,
	}
	d.Publish(Event{Type: EventTPHit, TPLevel: 1, Signal: signal, Price: 103})
	d.Close()

	messages := notifier.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Take Profit 1 Hit!")
}
