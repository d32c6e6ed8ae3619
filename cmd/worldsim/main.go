// Command worldsim runs the autonomous world simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/k7LqB9c2W/funsim-sub000/internal/api"
	"github.com/k7LqB9c2W/funsim-sub000/internal/config"
	"github.com/k7LqB9c2W/funsim-sub000/internal/engine"
	"github.com/k7LqB9c2W/funsim-sub000/internal/persistence"
)

func main() {
	cfgPath := flag.String("config", "", "path to tuning YAML (defaults apply if absent)")
	flag.Parse()

	tuning, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(tuning.LogLevel),
	}))
	slog.SetDefault(logger)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(tuning.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(tuning.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", tuning.DBPath)

	// ── Load or Generate World State ─────────────────────────────────
	sim, err := db.LoadWorld(tuning)
	if err != nil {
		slog.Error("failed to load world", "error", err)
		os.Exit(1)
	}
	if sim != nil {
		slog.Info("world state restored",
			"world", sim.WorldID,
			"day", sim.Day,
			"macro", sim.Pop.Macro,
		)
	} else {
		slog.Info("no saved state found, generating new world...")
		sim = engine.NewSimulation(tuning)
		if err := db.SaveWorld(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Simulation ────────────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.OnDay = func(day int32) {
		if int(day)%tuning.AutosaveDays != 0 {
			return
		}
		if err := db.SaveWorld(sim); err != nil {
			slog.Error("autosave failed", "day", day, "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("WORLDSIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("WORLDSIM_ADMIN_KEY not set, admin POST endpoints disabled")
	}
	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Addr:     tuning.APIAddr,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("World %s running: day %d, %d agents.\n", sim.WorldID, sim.Day, sim.Stats.Population)
	fmt.Printf("API: http://localhost%s/api/v1/status\n", tuning.APIAddr)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	slog.Info("final save...")
	if err := db.SaveWorld(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Simulation stopped. World state saved.")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
