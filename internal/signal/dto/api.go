package dto

import (
	"time"

	"crypto-signal-engine/internal/indicator"
)

// APIResponse is the envelope every operation returns: a success flag with
// either a payload or a human-readable error.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK wraps a payload in a successful envelope.
func OK(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data}
}

// Fail wraps an error message in a failed envelope.
func Fail(message string) APIResponse {
	return APIResponse{Success: false, Error: message}
}

// GenerateSignalRequest is the payload for an on-demand analysis. Capital
// overrides the configured per-signal allocation when positive.
type GenerateSignalRequest struct {
	Coin      string  `json:"coin"`
	Timeframe string  `json:"timeframe"`
	Capital   float64 `json:"capital"`
}

// GenerateSignalResponse carries the full analysis for one coin. The analysis
// is recorded as a prediction for later grading but does not open a position.
type GenerateSignalResponse struct {
	Coin         string              `json:"coin"`
	Indicators   *indicator.Snapshot `json:"indicators"`
	Proposal     *SignalProposal     `json:"proposal"`
	Quality      *SignalQuality      `json:"quality"`
	Performance  *PerformanceSummary `json:"performance"`
	PredictionID string              `json:"prediction_id"`
	UsedFallback bool                `json:"used_fallback"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// AutoGenerateSkip explains why a coin was not funded during an auto-generate
// sweep.
type AutoGenerateSkip struct {
	Coin   string `json:"coin"`
	Reason string `json:"reason"`
}

// AutoGenerateResponse summarizes one auto-generate sweep.
type AutoGenerateResponse struct {
	SignalsCreated int                `json:"signals_created"`
	SignalIDs      []string           `json:"signal_ids"`
	Skipped        []AutoGenerateSkip `json:"skipped"`
	StartedAt      time.Time          `json:"started_at"`
	Duration       string             `json:"duration"`
}

// CloseSignalRequest is the payload for a manual close.
type CloseSignalRequest struct {
	SignalID string `json:"signal_id"`
}

// UpdatePricesResponse summarizes one batch price-update pass.
type UpdatePricesResponse struct {
	Checked     int      `json:"checked"`
	Transitions []string `json:"transitions"`
	Expired     int      `json:"expired"`
}

// TriggerJobResponse acknowledges a manual job trigger.
type TriggerJobResponse struct {
	Job       string `json:"job"`
	Triggered bool   `json:"triggered"`
	Reason    string `json:"reason,omitempty"`
}

// JobStatus describes one registered job.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Running   bool       `json:"running"`
	LastRunAt *time.Time `json:"last_run_at"`
	LastError string     `json:"last_error,omitempty"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
