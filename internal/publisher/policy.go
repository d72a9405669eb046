package publisher

import (
	"time"

	"tgpublish/internal/ledger"
)

// forceLimitFactor relaxes the daily ceiling for unattended operation,
// which is expected to run across longer windows.
const forceLimitFactor = 3

// EffectiveLimit is the per-recipient daily send ceiling for the mode.
func EffectiveLimit(cfg RunConfig) int {
	if cfg.Mode == ModeForce {
		return cfg.DailyLimit * forceLimitFactor
	}
	return cfg.DailyLimit
}

// Eligible reports whether a recipient may be sent to at the given instant.
//
// Exhausting the quota is not an error: the recipient is simply skipped for
// the rest of the calendar day and becomes eligible again after rollover.
func Eligible(rec ledger.UsageRecord, now time.Time, cfg RunConfig) bool {
	return rec.Rollover(now).SentCount < EffectiveLimit(cfg)
}
