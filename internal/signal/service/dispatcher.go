package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/pkg/common"
	"crypto-signal-engine/pkg/logger"
	redisPkg "crypto-signal-engine/pkg/redis"
	"crypto-signal-engine/pkg/telegram"
)

// EventType identifies a notification event.
type EventType string

const (
	EventSignalCreated EventType = "SIGNAL_CREATED"
	EventTPHit         EventType = "TP_HIT"
	EventSLHit         EventType = "SL_HIT"
	EventSignalExpired EventType = "SIGNAL_EXPIRED"
	EventJobSummary    EventType = "JOB_SUMMARY"
	EventJobError      EventType = "JOB_ERROR"
	EventDailySummary  EventType = "DAILY_SUMMARY"
)

// Event is one notification to deliver. Signal events carry the signal after
// its state change was persisted; delivery failures never roll state back.
type Event struct {
	Type     EventType
	Signal   *entity.TradingSignal
	TPLevel  int
	Price    float64
	JobName  string
	Detail   string
	Duration time.Duration
	Err      error
	Stat     *entity.PortfolioStat
	Active   []entity.TradingSignal
}

// Dispatcher delivers events to Telegram asynchronously.
type Dispatcher interface {
	Publish(event Event)
	Close()
}

type dispatcher struct {
	log             *logger.Logger
	notifier        telegram.Notifier
	redisClient     *redisPkg.Client
	resendThreshold float64
	events          chan Event
	wg              sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with a single delivery worker. Events
// are dropped when the buffer is full rather than blocking the caller.
// resendThreshold is the percent move from the last alerted price beyond
// which a deduped TP/SL alert is repeated; zero disables resends.
func NewDispatcher(log *logger.Logger, notifier telegram.Notifier, redisClient *redisPkg.Client, resendThreshold float64) Dispatcher {
	d := &dispatcher{
		log:             log,
		notifier:        notifier,
		redisClient:     redisClient,
		resendThreshold: resendThreshold,
		events:          make(chan Event, 256),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *dispatcher) Publish(event Event) {
	select {
	case d.events <- event:
	default:
		d.log.Error("Event buffer full, dropping notification", logger.StringField("event_type", string(event.Type)))
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (d *dispatcher) Close() {
	close(d.events)
	d.wg.Wait()
}

func (d *dispatcher) run() {
	defer d.wg.Done()

	for event := range d.events {
		if err := d.deliver(event); err != nil {
			d.log.Error("Failed to deliver notification",
				logger.StringField("event_type", string(event.Type)),
				logger.ErrorField(err),
			)
		}
	}
}

func (d *dispatcher) deliver(event Event) error {
	switch event.Type {
	case EventSignalCreated:
		return d.notifier.SendMessage(telegram.FormatSignalCreatedMessage(event.Signal))
	case EventTPHit:
		alertType := telegram.TakeProfit1
		switch event.TPLevel {
		case 2:
			alertType = telegram.TakeProfit2
		case 3:
			alertType = telegram.TakeProfit3
		}
		return d.deliverSignalAlert(alertType, event)
	case EventSLHit:
		return d.deliverSignalAlert(telegram.StopLoss, event)
	case EventSignalExpired:
		return d.deliverSignalAlert(telegram.Expired, event)
	case EventJobSummary:
		return d.notifier.SendMessage(telegram.FormatJobSummaryMessage(event.JobName, event.Detail, event.Duration))
	case EventJobError:
		return d.notifier.SendMessage(telegram.FormatErrorAlertMessage(time.Now(), event.JobName, event.Err.Error()))
	case EventDailySummary:
		return d.deliverDailySummary(event)
	}
	return fmt.Errorf("unknown event type: %s", event.Type)
}

// deliverSignalAlert sends a TP/SL/expiry alert at most once per signal and
// alert type, deduplicated through redis. The dedupe key stores the price the
// alert fired at; a later re-cross repeats the alert only when the price has
// moved more than the resend threshold from that stored price.
func (d *dispatcher) deliverSignalAlert(alertType telegram.AlertType, event Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := fmt.Sprintf(common.RedisKeySignalAlert, event.Signal.ID, alertType)
	ok, err := d.redisClient.SetNX(ctx, key, event.Price, 48*time.Hour).Result()
	if err != nil {
		d.log.Error("Failed to check alert dedupe key, sending anyway", logger.ErrorField(err))
	} else if !ok {
		if !d.shouldResend(ctx, key, event.Price) {
			d.log.Debug("Alert already sent, skipping",
				logger.StringField("signal_id", event.Signal.ID),
				logger.StringField("alert_type", string(alertType)),
			)
			return nil
		}
		// measure the next resend from this price
		if err := d.redisClient.Set(ctx, key, event.Price, 48*time.Hour).Err(); err != nil {
			d.log.Debug("Failed to refresh alert dedupe key", logger.ErrorField(err))
		}
	}

	return d.notifier.SendMessage(telegram.FormatSignalAlertMessage(alertType, event.Signal, event.Price))
}

// shouldResend reports whether price has drifted beyond the configured
// threshold from the price stored under the dedupe key.
func (d *dispatcher) shouldResend(ctx context.Context, key string, price float64) bool {
	if d.resendThreshold <= 0 {
		return false
	}
	last, err := d.redisClient.Get(ctx, key).Float64()
	if err != nil || last == 0 {
		return false
	}
	return priceMoveExceeds(last, price, d.resendThreshold)
}

// priceMoveExceeds reports whether price sits at least thresholdPercent away
// from base.
func priceMoveExceeds(base, price, thresholdPercent float64) bool {
	return math.Abs(price-base)/base*100 >= thresholdPercent
}

// deliverDailySummary sends the daily rollup at most once per date.
func (d *dispatcher) deliverDailySummary(event Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := fmt.Sprintf(common.RedisKeyDailySummary, event.Stat.Date)
	ok, err := d.redisClient.SetNX(ctx, key, time.Now().Unix(), 48*time.Hour).Result()
	if err != nil {
		d.log.Error("Failed to check daily summary dedupe key, sending anyway", logger.ErrorField(err))
	} else if !ok {
		return nil
	}

	return d.notifier.SendMessage(telegram.FormatDailySummaryMessage(event.Stat, event.Active))
}
