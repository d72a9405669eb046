package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Publisher PublisherConfig `json:"publisher"`

	// Storage configures the usage ledger backend. If omitted, a JSON file
	// next to the config is used.
	Storage *StorageConfig `json:"storage,omitempty"`

	// GroupsFile is the recipient list (see internal/groups).
	GroupsFile string `json:"groups_file,omitempty"`
}

type TelegramConfig struct {
	// Token may be left empty; cmd falls back to the TGPUBLISH_TOKEN
	// environment variable (optionally loaded from .env).
	Token string `json:"token,omitempty"`

	// RatePerSec caps aggregate outgoing send velocity across all
	// recipients. Defaults to 1.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the usage ledger persistence layer.
//
// Driver values:
//   - "file": atomic JSON file (default)
//   - "sqlite": SQLite database file
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// PublisherConfig is the raw publishing section.
//
// All durations are Go duration strings (e.g. "30s", "5m").
//
// Defaults (when fields are omitted/zero):
//   - delays: "5m" per message
//   - min_gap: "10s", max_gap: "1m"
//   - daily_limit: 50
//   - retry_max: 3, retry_backoff: "2s"
//   - cycle_pause: "30s" (force mode only)
type PublisherConfig struct {
	Messages []string `json:"messages"`

	// Delays holds the per-message pre-delay, parallel to Messages.
	// Missing entries are padded with the default.
	Delays []string `json:"delays,omitempty"`

	MinGap     string `json:"min_gap,omitempty"`
	MaxGap     string `json:"max_gap,omitempty"`
	DailyLimit int    `json:"daily_limit,omitempty"`

	RetryMax     int    `json:"retry_max,omitempty"`
	RetryBackoff string `json:"retry_backoff,omitempty"`

	// CyclePause separates drain passes in force mode.
	CyclePause string `json:"cycle_pause,omitempty"`

	// Schedule is an optional cron spec; when set, force-mode passes run
	// on the schedule instead of back-to-back with CyclePause.
	Schedule string `json:"schedule,omitempty"`
}

// Publisher is the normalized form of PublisherConfig.
type Publisher struct {
	Messages     []string
	Delays       []time.Duration
	MinGap       time.Duration
	MaxGap       time.Duration
	DailyLimit   int
	RetryMax     int
	RetryBackoff time.Duration
	CyclePause   time.Duration
	Schedule     string
}

const (
	DefaultMessageDelay = 5 * time.Minute
	DefaultMinGap       = 10 * time.Second
	DefaultMaxGap       = time.Minute
	DefaultDailyLimit   = 50
	DefaultRetryMax     = 3
	DefaultRetryBackoff = 2 * time.Second
	DefaultCyclePause   = 30 * time.Second
)

// Normalize parses duration strings, applies defaults, and validates the
// publishing section.
func (c PublisherConfig) Normalize() (Publisher, error) {
	p := Publisher{
		Messages:   append([]string(nil), c.Messages...),
		DailyLimit: c.DailyLimit,
		RetryMax:   c.RetryMax,
		Schedule:   c.Schedule,
	}

	var err error
	if p.MinGap, err = ParseDurationOrDefault("publisher.min_gap", c.MinGap, DefaultMinGap); err != nil {
		return Publisher{}, err
	}
	if p.MaxGap, err = ParseDurationOrDefault("publisher.max_gap", c.MaxGap, DefaultMaxGap); err != nil {
		return Publisher{}, err
	}
	if p.RetryBackoff, err = ParseDurationOrDefault("publisher.retry_backoff", c.RetryBackoff, DefaultRetryBackoff); err != nil {
		return Publisher{}, err
	}
	if p.CyclePause, err = ParseDurationOrDefault("publisher.cycle_pause", c.CyclePause, DefaultCyclePause); err != nil {
		return Publisher{}, err
	}

	if p.MaxGap < p.MinGap {
		return Publisher{}, errors.New("publisher.max_gap must be >= publisher.min_gap")
	}
	if p.DailyLimit <= 0 {
		p.DailyLimit = DefaultDailyLimit
	}
	if p.RetryMax <= 0 {
		p.RetryMax = DefaultRetryMax
	}

	if len(c.Delays) > len(c.Messages) {
		return Publisher{}, fmt.Errorf("publisher.delays has %d entries for %d messages", len(c.Delays), len(c.Messages))
	}
	p.Delays = make([]time.Duration, len(c.Messages))
	for i := range p.Delays {
		p.Delays[i] = DefaultMessageDelay
		if i < len(c.Delays) {
			d, err := ParseDurationField(fmt.Sprintf("publisher.delays[%d]", i), c.Delays[i])
			if err != nil {
				return Publisher{}, err
			}
			if d > 0 {
				p.Delays[i] = d
			}
		}
	}

	return p, nil
}

// ValidateForRun rejects configurations that cannot drive a publishing run.
func (p Publisher) ValidateForRun() error {
	if len(p.Messages) == 0 {
		return errors.New("no messages configured")
	}
	for i, m := range p.Messages {
		if m == "" {
			return fmt.Errorf("message %d is empty", i+1)
		}
	}
	return nil
}
