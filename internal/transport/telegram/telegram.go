// Package telegram implements the send capability over the Telegram Bot
// API via telebot.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"tgpublish/internal/transport"
	logx "tgpublish/pkg/logx"
)

type Config struct {
	Token string

	// RatePerSec caps aggregate send velocity across all recipients.
	// Defaults to 1: the dispatch loop already paces per-recipient, this
	// is a hard floor against bursts.
	RatePerSec int

	// Offline skips the initial getMe probe (tests).
	Offline bool
}

// Sender sends plain text messages to chats. It never retries on its own;
// retry policy belongs to the dispatch loop.
type Sender struct {
	bot     *tele.Bot
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, err
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Sender{
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}, nil
}

func (s *Sender) Send(ctx context.Context, to int64, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.bot.Send(&tele.Chat{ID: to}, text)
	return translate(err)
}

// ChatTitle resolves a chat's display name (used when adding groups).
func (s *Sender) ChatTitle(id int64) (string, error) {
	chat, err := s.bot.ChatByID(id)
	if err != nil {
		return "", translate(err)
	}
	if chat.Title != "" {
		return chat.Title, nil
	}
	return strings.TrimSpace(chat.FirstName + " " + chat.LastName), nil
}

// translate maps telebot errors into the transport taxonomy. The flood-wait
// duration is carried over verbatim.
func translate(err error) error {
	if err == nil {
		return nil
	}

	// telebot constructs FloodError by value; accept both shapes.
	var fv tele.FloodError
	if errors.As(err, &fv) {
		return &transport.ThrottledError{RetryAfter: time.Duration(fv.RetryAfter) * time.Second, Cause: err}
	}
	var fp *tele.FloodError
	if errors.As(err, &fp) {
		return &transport.ThrottledError{RetryAfter: time.Duration(fp.RetryAfter) * time.Second, Cause: err}
	}

	var te *tele.Error
	if errors.As(err, &te) {
		switch {
		case te.Code == 401:
			return &transport.FatalError{Cause: err}
		case te.Code == 403:
			return &transport.PermissionError{Reason: te.Description, Cause: err}
		case te.Code == 400 && permanentBadRequest(te.Description):
			return &transport.PermissionError{Reason: te.Description, Cause: err}
		}
	}

	// Everything else (network, 5xx, unknown) is left for the classifier's
	// transient default.
	return err
}

func permanentBadRequest(desc string) bool {
	d := strings.ToLower(desc)
	for _, marker := range []string{
		"chat not found",
		"not enough rights",
		"have no rights",
		"user is deactivated",
		"bot was kicked",
	} {
		if strings.Contains(d, marker) {
			return true
		}
	}
	return false
}
