package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/stagecraft/internal/config"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	coresys "github.com/l1jgo/stagecraft/internal/core/system"
	"github.com/l1jgo/stagecraft/internal/data"
	"github.com/l1jgo/stagecraft/internal/director"
	"github.com/l1jgo/stagecraft/internal/scripting"
	"github.com/l1jgo/stagecraft/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load .env (optional) and config
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfgPath := "config/stagecraft.toml"
	if p := os.Getenv("STAGECRAFT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Director and frame loop
	sched := director.NewLoopScheduler(cfg.Director.FrameInterval.Duration, log)
	dir := director.New(director.Options{
		Config:    cfg.Director,
		Scheduler: sched,
		Log:       log,
	})
	defer dir.Destroy()

	// 4. Blueprints
	printSection("Content")
	var factory *data.Factory
	if cfg.Blueprints.Path != "" {
		table, err := data.LoadBlueprints(cfg.Blueprints.Path, ecs.Kinds)
		if err != nil {
			return fmt.Errorf("load blueprints: %w", err)
		}
		printStat("Blueprints", table.Count())
		factory = data.NewFactory(table, dir.Entities(), log)
		dir.Events().RegisterContext(factory)
	}

	// 5. Systems: built-ins first, then scripts, in that execution order
	dir.Systems().Add(system.MovementKind)
	dir.Systems().Add(system.LifetimeKind)
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, ecs.Kinds, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer engine.Close()
		for _, k := range engine.Kinds(coresys.Kinds) {
			dir.Systems().Add(k)
		}
		printStat("Lua systems", len(engine.Systems()))
	}
	dir.Systems().Add(coresys.DefineKind("trace", system.TraceFactory(log)))
	printStat("Systems", len(dir.Systems().Systems()))

	// 6. Start the sandbox mode; it spawns the configured blueprints
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	dir.Start(func() director.Mode {
		return &sandboxMode{spawn: cfg.Blueprints.Spawn, enabled: factory != nil, done: stop}
	}, true)
	printStat("Entities", dir.Entities().Len())
	printOK(fmt.Sprintf("frame loop running (interval %s, fixed step %t)", cfg.Director.FrameInterval, cfg.Director.FixedStep))
	fmt.Println()

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("frame loop: %w", err)
	}
	log.Info("shutting down", zap.Uint64("frames", sched.Frames()), zap.Int("entities", dir.Entities().Len()))
	return nil
}

// newLogger builds the process logger: JSON for "json", a compact coloured
// console encoder otherwise. Every entry carries the app name.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Format != "json" {
		zc = zap.NewDevelopmentConfig()
		enc := &zc.EncoderConfig
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc.EncodeDuration = zapcore.StringDurationEncoder
		enc.ConsoleSeparator = " | "
		zc.DisableCaller, zc.DisableStacktrace = true, true
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build(zap.Fields(zap.String("app", "stagecraft")))
}
