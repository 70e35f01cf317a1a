// Command castgen generates a character-group casting for a dramatized
// scripture recording project.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sillsdev/Glyssen-sub016/internal/app"
	"github.com/sillsdev/Glyssen-sub016/internal/casting"
	"github.com/sillsdev/Glyssen-sub016/internal/catalog"
	"github.com/sillsdev/Glyssen-sub016/internal/config"
	"github.com/sillsdev/Glyssen-sub016/internal/observe"
	"github.com/sillsdev/Glyssen-sub016/pkg/proximity"
	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	exitOK           = 0
	exitError        = 1
	exitUnacceptable = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	fs := flag.NewFlagSet("castgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	projectPath := fs.String("project", "project.yaml", "path to the YAML project file")
	outPath := fs.String("out", "", "write the cast to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "castgen: %v\n", err)
		return exitError
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(stderr, cfg.LogLevel))

	// ── Project ───────────────────────────────────────────────────────────────
	cat, err := catalog.Load(*projectPath)
	if err != nil {
		slog.Error("failed to load project", "path", *projectPath, "err", err)
		return exitError
	}
	slog.Info("castgen starting",
		"config", *configPath,
		"project", cat.Name(),
		"books", len(cat.Books()),
		"actors", len(cat.Actors()),
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	telemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		MetricsFile: cfg.Telemetry.MetricsFile,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return exitError
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics, err := observe.NewMetrics(telemetry.MeterProvider())
	if err != nil {
		slog.Error("failed to create metric instruments", "err", err)
		return exitError
	}

	application, err := app.New(ctx, cfg, cat, app.WithMetrics(metrics))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return exitError
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	res, err := application.Run(ctx)
	if err != nil {
		slog.Error("casting failed", "err", err)
		if errors.Is(err, casting.ErrNoAcceptableCast) {
			return exitUnacceptable
		}
		return exitError
	}

	// ── Output ────────────────────────────────────────────────────────────────
	out := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			slog.Error("failed to create output file", "path", *outPath, "err", err)
			return exitError
		}
		defer f.Close()
		out = f
	}
	if err := writeCast(out, application.ProjectID(), res); err != nil {
		slog.Error("failed to write cast", "err", err)
		return exitError
	}
	return exitOK
}

// ── Output ────────────────────────────────────────────────────────────────────

type castDoc struct {
	Project        string     `yaml:"project"`
	RunID          string     `yaml:"run_id,omitempty"`
	Acceptable     bool       `yaml:"acceptable"`
	Fallback       bool       `yaml:"fallback,omitempty"`
	WorstProximity *int       `yaml:"worst_proximity,omitempty"`
	Trials         int        `yaml:"trials"`
	Groups         []groupDoc `yaml:"groups"`
}

type groupDoc struct {
	ID         string   `yaml:"id"`
	Actor      string   `yaml:"actor,omitempty"`
	Cameo      bool     `yaml:"cameo,omitempty"`
	Characters []string `yaml:"characters"`
}

// writeCast renders res as a YAML document.
func writeCast(w io.Writer, projectID string, res *casting.Result) error {
	doc := castDoc{
		Project:    projectID,
		RunID:      res.RunID,
		Acceptable: res.Acceptable,
		Fallback:   res.Fallback,
		Trials:     res.Trials,
		Groups:     make([]groupDoc, 0, len(res.Groups)),
	}
	if res.WorstProximity.Blocks != proximity.Max {
		blocks := res.WorstProximity.Blocks
		doc.WorstProximity = &blocks
	}
	for _, g := range res.Groups {
		gd := groupDoc{ID: g.ID, Cameo: g.Cameo, Characters: g.Characters()}
		if g.HasActor() {
			gd.Actor = g.Actor().String()
			if g.Actor().ID == 0 {
				gd.Actor = fmt.Sprintf("#%d", g.ActorID)
			}
		}
		doc.Groups = append(doc.Groups, gd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode cast: %w", err)
	}
	return enc.Close()
}

// newLogger creates an [slog.Logger] writing text to w at the given level.
func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.SlogLevel()}))
}
