// Package config loads world tuning from a YAML file, falling back to
// defaults for anything unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the knobs the host application can override per world.
type Tuning struct {
	// World generation.
	WorldWidth   int     `yaml:"world_width"`
	WorldHeight  int     `yaml:"world_height"`
	Seed         int64   `yaml:"seed"`
	SeaLevel     float64 `yaml:"sea_level"`
	LakeMoisture float64 `yaml:"lake_moisture"`

	// Population.
	StartingAgents int `yaml:"starting_agents"`

	// Scheduling.
	TicksPerDay    int `yaml:"ticks_per_day"`
	MacroEnterPop  int `yaml:"macro_enter_pop"`
	MacroExitPop   int `yaml:"macro_exit_pop"`
	MacroDayStride int `yaml:"macro_day_stride"`

	// Housekeeping.
	AutosaveDays int    `yaml:"autosave_days"`
	EventKeep    int    `yaml:"event_keep"`
	APIAddr      string `yaml:"api_addr"`
	DBPath       string `yaml:"db_path"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the stock tuning.
func Default() Tuning {
	return Tuning{
		WorldWidth:     256,
		WorldHeight:    256,
		Seed:           1,
		SeaLevel:       0.32,
		LakeMoisture:   0.74,
		StartingAgents: 400,
		TicksPerDay:    120,
		MacroEnterPop:  3000,
		MacroExitPop:   2200,
		MacroDayStride: 5,
		AutosaveDays:   10,
		EventKeep:      1000,
		APIAddr:        ":8080",
		DBPath:         "worldsim.db",
		LogLevel:       "info",
	}
}

// Load reads tuning from a YAML file over the defaults. A missing path is not
// an error; the defaults apply.
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t *Tuning) validate() error {
	if t.WorldWidth < ZoneMin || t.WorldHeight < ZoneMin {
		return fmt.Errorf("world size %dx%d below minimum %d", t.WorldWidth, t.WorldHeight, ZoneMin)
	}
	if t.TicksPerDay <= 0 {
		return fmt.Errorf("ticks_per_day must be positive, got %d", t.TicksPerDay)
	}
	if t.MacroExitPop >= t.MacroEnterPop {
		return fmt.Errorf("macro_exit_pop %d must sit below macro_enter_pop %d", t.MacroExitPop, t.MacroEnterPop)
	}
	if t.MacroDayStride <= 0 {
		return fmt.Errorf("macro_day_stride must be positive, got %d", t.MacroDayStride)
	}
	return nil
}

// ZoneMin is the smallest usable world edge, one territory zone.
const ZoneMin = 16
