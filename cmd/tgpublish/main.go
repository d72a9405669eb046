package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"

	"tgpublish/internal/config"
	"tgpublish/internal/eventbus"
	"tgpublish/internal/groups"
	"tgpublish/internal/ledger"
	"tgpublish/internal/publisher"
	"tgpublish/internal/transport/telegram"
	logx "tgpublish/pkg/logx"
)

const tokenEnv = "TGPUBLISH_TOKEN"

func main() {
	var opts options
	opts.register()

	// Token may live in .env next to the binary.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	mgr := config.NewManager(opts.cfgPath)
	mgr.SetValidator(validateConfig)
	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", opts.cfgPath, err)
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console || !cfg.Logging.File.Enabled,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	defer logSvc.Close()
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	groupsFile := cfg.GroupsFile
	if groupsFile == "" {
		groupsFile = "./groups.json"
	}

	// Group management flags run the operation and exit.
	if opts.listGroups {
		return printGroups(groupsFile)
	}
	if opts.removeGroup != 0 {
		g, err := groups.Remove(groupsFile, opts.removeGroup)
		if err != nil {
			return err
		}
		fmt.Printf("removed group: %s (%d)\n", g.Name, g.ChatID)
		return nil
	}

	token := cfg.Telegram.Token
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	sender, err := telegram.New(telegram.Config{
		Token:      token,
		RatePerSec: cfg.Telegram.RatePerSec,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return err
	}

	if opts.addGroup != 0 {
		title, err := sender.ChatTitle(opts.addGroup)
		if err != nil {
			return fmt.Errorf("resolve chat %d: %w", opts.addGroup, err)
		}
		if err := groups.Add(groupsFile, groups.Group{ChatID: opts.addGroup, Name: title}); err != nil {
			return err
		}
		fmt.Printf("added group: %s (%d)\n", title, opts.addGroup)
		return nil
	}

	store, err := ledger.Open(ledgerConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	led := ledger.New(store, log.With(logx.String("comp", "ledger")))
	if err := led.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	mode := publisher.ModeInteractive
	if opts.force {
		mode = publisher.ModeForce
	}

	pub, err := cfg.Publisher.Normalize()
	if err != nil {
		return err
	}
	if err := pub.ValidateForRun(); err != nil {
		return fmt.Errorf("publisher config: %w", err)
	}
	gs, err := groups.Load(groupsFile)
	if err != nil {
		return err
	}
	if len(gs) == 0 {
		return errors.New("no groups configured; add one with -add-group")
	}

	logUsage(led, gs, publisher.EffectiveLimit(runConfig(pub, mode)), log)

	bus := eventbus.New()
	events, unsub := bus.Subscribe(64)
	defer unsub()
	go logAttempts(events, log.With(logx.String("comp", "status")))

	// Hot reload: the watcher republishes validated configs; each pass
	// reads the latest via mgr.Get().
	go func() {
		if err := mgr.Watch(ctx); err != nil {
			log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	pass := func(ctx context.Context) publisher.Report {
		cur := mgr.Get()
		p, err := cur.Publisher.Normalize()
		if err != nil {
			// Watch validates before publishing, so this is the initial
			// (already validated) config failing; keep the last good one.
			p = pub
		}
		pub = p

		// Groups added while a force-mode run is underway join the next pass.
		if fresh, err := groups.Load(groupsFile); err == nil && len(fresh) > 0 {
			gs = fresh
		}

		d := publisher.NewDispatcher(
			runConfig(p, mode),
			buildPlan(p),
			groups.Recipients(gs),
			sender,
			led,
			log.With(logx.String("comp", "dispatch")),
			publisher.WithBus(bus),
		)
		return d.Run(ctx)
	}

	runner := publisher.NewRunner(mode, pub.CyclePause, pub.Schedule, pass, log.With(logx.String("comp", "runner")))

	if mode == publisher.ModeForce {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
		defer func() { _, _ = daemon.SdNotify(false, daemon.SdNotifyStopping) }()
		log.Info("force mode: continuous publishing",
			logx.Int("groups", len(gs)),
			logx.Int("messages", len(pub.Messages)),
			logx.Duration("cycle_pause", pub.CyclePause))
	}

	rep := runner.Run(ctx)
	log.Info("publisher finished",
		logx.String("state", rep.State.String()),
		logx.Int("sent", rep.Sent),
		logx.Int("failed_groups", len(rep.Failed)))

	// Operator-initiated stop is a clean exit; a fatal halt is not.
	if rep.State == publisher.StateHalted && !errors.Is(rep.Err, context.Canceled) {
		return rep.Err
	}
	return nil
}

func validateConfig(cfg *config.Config) error {
	pub, err := cfg.Publisher.Normalize()
	if err != nil {
		return err
	}
	return pub.ValidateForRun()
}

func ledgerConfig(cfg *config.Config) ledger.Config {
	lc := ledger.Config{Driver: "file", Path: "./tgpublish_usage.json"}
	if cfg.Storage == nil {
		return lc
	}
	if cfg.Storage.Driver != "" {
		lc.Driver = cfg.Storage.Driver
	}
	if cfg.Storage.Path != "" {
		lc.Path = cfg.Storage.Path
	}
	if d, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err == nil {
		lc.BusyTimeout = d
	}
	return lc
}

func runConfig(p config.Publisher, mode publisher.Mode) publisher.RunConfig {
	return publisher.RunConfig{
		DailyLimit:   p.DailyLimit,
		MinGap:       p.MinGap,
		MaxGap:       p.MaxGap,
		Mode:         mode,
		RetryMax:     p.RetryMax,
		RetryBackoff: p.RetryBackoff,
	}
}

func buildPlan(p config.Publisher) publisher.Plan {
	plan := make(publisher.Plan, 0, len(p.Messages))
	for i, text := range p.Messages {
		d := config.DefaultMessageDelay
		if i < len(p.Delays) {
			d = p.Delays[i]
		}
		plan = append(plan, publisher.Message{Text: text, PreDelay: d})
	}
	return plan
}

// logUsage prints each group's remaining quota for today.
func logUsage(led *ledger.Ledger, gs []groups.Group, limit int, log logx.Logger) {
	snap := led.Snapshot()
	now := time.Now()
	for _, g := range gs {
		rec := snap[g.ChatID].Rollover(now)
		log.Info("quota status",
			logx.String("group", g.Name),
			logx.Int64("chat_id", g.ChatID),
			logx.Int("sent_today", rec.SentCount),
			logx.Int("remaining", limit-rec.SentCount))
	}
}

func printGroups(path string) error {
	gs, err := groups.Load(path)
	if err != nil {
		return err
	}
	if len(gs) == 0 {
		fmt.Println("no groups configured")
		return nil
	}
	for i, g := range gs {
		fmt.Printf("%d. %s (%d) added %s\n", i+1, g.Name, g.ChatID, g.AddedAt.Format(time.DateOnly))
	}
	return nil
}

func logAttempts(events <-chan eventbus.Event, log logx.Logger) {
	for ev := range events {
		at, ok := ev.Data.(publisher.AttemptEvent)
		if !ok {
			continue
		}
		log.Debug("send attempt",
			logx.Int64("chat_id", at.RecipientID),
			logx.Int("message", at.MessageIndex+1),
			logx.String("outcome", at.Outcome.String()),
			logx.Time("at", at.At))
	}
}
