package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/TheBitDrifter/lineage"
	"github.com/TheBitDrifter/lineage/internal/config"
	"github.com/TheBitDrifter/lineage/internal/scene"
	"github.com/TheBitDrifter/table"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "lineage.toml", "Path to the TOML config (defaults are used if absent)")
	scenePath := flag.String("scene", "", "Scene file to load, overrides scene.path")
	profileMode := flag.String("profile", "", "Profile the run: cpu or mem, overrides profile.mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return err
	}
	if *scenePath != "" {
		cfg.Scene.Path = *scenePath
	}
	if *profileMode != "" {
		cfg.Profile.Mode = *profileMode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	lineage.Config.SetLogger(log)

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
	}

	f, err := scene.Load(cfg.Scene.Path)
	if err != nil {
		return err
	}
	sto := lineage.Factory.NewStorage(table.Factory.NewSchema())
	sc, err := scene.Build(sto, f, cfg.Scene.MaxNodes, log)
	if err != nil {
		return err
	}
	log.Info("scene loaded", zap.String("path", cfg.Scene.Path), zap.Int("roots", len(f.Nodes)))

	// Build events are noise next to the script's.
	lineage.Drain[lineage.HierarchyEvent](sto.Events())
	if len(f.Script) > 0 {
		if err := sc.Replay(f.Script); err != nil {
			log.Warn("script finished with errors", zap.Error(err))
		}
	}

	if err := sc.Fprint(os.Stdout); err != nil {
		return err
	}
	events := lineage.Drain[lineage.HierarchyEvent](sto.Events())
	if len(events) > 0 {
		fmt.Println()
	}
	for _, ev := range events {
		fmt.Println(sc.Describe(ev))
	}

	if err := lineage.VerifyHierarchy(sto); err != nil {
		if cfg.Scene.Verify {
			return fmt.Errorf("verify hierarchy: %w", err)
		}
		log.Warn("hierarchy is inconsistent", zap.Error(err))
	}
	return nil
}

func startProfile(cfg config.ProfileConfig) interface{ Stop() } {
	switch cfg.Mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Path), profile.NoShutdownHook)
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath(cfg.Path), profile.NoShutdownHook)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// Stdout carries the tree dump.
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
