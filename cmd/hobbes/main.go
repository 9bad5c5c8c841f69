package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/mots/hobbes/hobbes/agent"
	"github.com/mots/hobbes/hobbes/config"
	"github.com/mots/hobbes/hobbes/coordinator"
	"github.com/mots/hobbes/hobbes/machine"
	"github.com/mots/hobbes/hobbes/notes"
	"github.com/mots/hobbes/hobbes/spectator"
	"github.com/mots/hobbes/hobbes/ui"
)

func main() {
	app := cli.NewApp()
	app.Name = "Hobbes"
	app.Description = "An AI agent that plays Game Boy games"
	app.Usage = "hobbes [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to the YAML config file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without human input; the agent is triggered automatically",
		},
		cli.IntFlag{
			Name:  "turn-interval",
			Usage: "Frames between automatic agent turns in headless mode",
		},
		cli.IntFlag{
			Name:  "max-frames",
			Usage: "Stop after this many frames (0 = unlimited)",
		},
		cli.IntFlag{
			Name:  "speed",
			Usage: "Emulation speed multiplier (0 = unthrottled)",
			Value: -1,
		},
		cli.IntFlag{
			Name:  "skip-frames",
			Usage: "Fast-forward this many frames on startup (skips intros)",
		},
		cli.StringFlag{
			Name:  "model",
			Usage: "Model identifier sent to the completion endpoint",
		},
		cli.StringFlag{
			Name:  "base-url",
			Usage: "Base URL of the OpenAI-compatible API",
		},
		cli.StringFlag{
			Name:  "agent-style",
			Usage: "Agent response protocol: delimited or tools",
		},
		cli.StringFlag{
			Name:  "notes-db",
			Usage: "Path to the SQLite notes database (tools style only)",
		},
		cli.StringFlag{
			Name:  "spectator",
			Usage: "Listen address for the read-only spectator feed (empty = disabled)",
		},
		cli.BoolFlag{
			Name:  "no-ui",
			Usage: "Disable the terminal view; commands are read from stdin",
		},
		cli.StringFlag{
			Name:  "log-file",
			Usage: "Write JSON logs to this file instead of stderr",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running hobbes", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, &cfg)

	if cfg.Emulator.ROM == "" {
		if c.NArg() > 0 {
			cfg.Emulator.ROM = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	headless := c.Bool("headless")
	noUI := c.Bool("no-ui")

	// In headless and no-ui modes logs go to a JSON handler; in UI mode
	// the view installs a handler that draws logs on screen.
	if headless || noUI {
		if err := setupLogging(cfg.Logging); err != nil {
			return err
		}
	}

	m, err := machine.NewJeebie(cfg.Emulator.ROM, cfg.Emulator.Speed, cfg.Emulator.SkipFrames)
	if err != nil {
		return err
	}

	requester, cleanup, err := buildRequester(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	systemPrompt := agent.SystemPrompt
	if cfg.Agent.Style == config.StyleTools {
		systemPrompt = agent.ToolSystemPrompt
	}
	conv := agent.NewConversation(systemPrompt)

	coord := coordinator.New(m, requester, conv, coordinator.Config{
		Headless:            headless,
		TurnThreshold:       cfg.Turn.Threshold,
		HoldFrames:          cfg.Turn.HoldFrames,
		SequenceDelayFrames: cfg.Turn.SequenceDelayFrames,
		MaxFrames:           cfg.Turn.MaxFrames,
		StatePath:           coordinator.StatePathFor(cfg.Emulator.ROM),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if addr := cfg.Spectator.Addr; addr != "" {
		feed := spectator.NewServer(addr)
		coord.OnState(feed.Publish)
		g.Go(func() error { return feed.Run(ctx) })
	}

	switch {
	case headless:
		// No human input source.
	case noUI:
		reader := ui.NewStdinReader(os.Stdin, coord.HumanQueue())
		g.Go(func() error {
			err := reader.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	default:
		view := ui.NewView(coord.HumanQueue())
		if err := view.Init(); err != nil {
			return err
		}
		defer view.Cleanup()
		coord.OnState(view.Update)
	}

	go func() {
		<-ctx.Done()
		coord.RequestStop()
	}()

	coord.Run()
	cancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("rom"); v != "" {
		cfg.Emulator.ROM = v
	}
	if v := c.Int("turn-interval"); v > 0 {
		cfg.Turn.Threshold = v
	}
	if v := c.Int("max-frames"); v > 0 {
		cfg.Turn.MaxFrames = v
	}
	if v := c.Int("speed"); v >= 0 {
		cfg.Emulator.Speed = v
	}
	if v := c.Int("skip-frames"); v > 0 {
		cfg.Emulator.SkipFrames = v
	}
	if v := c.String("model"); v != "" {
		cfg.Agent.Model = v
	}
	if v := c.String("base-url"); v != "" {
		cfg.Agent.BaseURL = v
	}
	if v := c.String("agent-style"); v != "" {
		cfg.Agent.Style = v
	}
	if v := c.String("notes-db"); v != "" {
		cfg.Notes.Path = v
	}
	if v := c.String("spectator"); v != "" {
		cfg.Spectator.Addr = v
	}
	if v := c.String("log-file"); v != "" {
		cfg.Logging.File = v
	}
}

func setupLogging(cfg config.LoggingConfig) error {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stderr
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		out = f
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})))
	return nil
}

// buildRequester wires the completion client and, for the tools style,
// the notes store. The returned cleanup closes whatever was opened.
func buildRequester(cfg config.Config) (agent.Requester, func(), error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, nil, errors.New("missing API key: set " + cfg.Agent.APIKeyEnv)
	}

	client := agent.NewClient(agent.ClientConfig{
		BaseURL: cfg.Agent.BaseURL,
		APIKey:  apiKey,
		Model:   cfg.Agent.Model,
		Referer: cfg.Agent.Referer,
		Title:   cfg.Agent.Title,
		Timeout: time.Duration(cfg.Agent.TimeoutSec) * time.Second,
	})

	if cfg.Agent.Style == config.StyleTools {
		store, err := notes.Open(cfg.Notes.Path)
		if err != nil {
			return nil, nil, err
		}
		return agent.NewToolRequester(client, store), func() { store.Close() }, nil
	}
	return agent.NewDelimitedRequester(client), func() {}, nil
}
