package common

const (
	RedisKeySignalAlert  = "signal_alert:%s:%s"
	RedisKeyDailySummary = "daily_summary:%s"
)
