// Package config handles bot2 configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// Engine tuning
	Emotion     EmotionConfig     `json:"emotion"`
	Personality PersonalityConfig `json:"personality"`
	Adaptation  AdaptationConfig  `json:"adaptation"`
	Engine      EngineConfig      `json:"engine"`

	// Logging
	LogLevel string `json:"log_level"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// EmotionConfig tunes the emotional state machine. All rates live in [0,1].
type EmotionConfig struct {
	DecayRate          float64 `json:"decay_rate"`           // per minute
	TransitionSpeed    float64 `json:"transition_speed"`     // blend factor
	StabilityFactor    float64 `json:"stability_factor"`     // damping strength
	EnergyRecoveryRate float64 `json:"energy_recovery_rate"` // per minute
	Sensitivity        float64 `json:"sensitivity"`          // trigger intensity scale
	MaxHistory         int     `json:"max_history"`
}

// TraitConfig tunes a single personality trait.
type TraitConfig struct {
	BaseLevel      float64 `json:"base_level"`
	MinLevel       float64 `json:"min_level"`
	MaxLevel       float64 `json:"max_level"`
	AdaptationRate float64 `json:"adaptation_rate"`
}

// PersonalityConfig tunes the three trait adapters.
type PersonalityConfig struct {
	Assertiveness TraitConfig `json:"assertiveness"`
	Empathy       TraitConfig `json:"empathy"`
	Curiosity     TraitConfig `json:"curiosity"`
}

// AdaptationConfig tunes the learning coordinator.
type AdaptationConfig struct {
	LearningRate   float64 `json:"learning_rate"`
	MemoryDecay    float64 `json:"memory_decay"`
	MaxExperiences int     `json:"max_experiences"`
}

// EngineConfig tunes the state owner loop.
type EngineConfig struct {
	QueueSize        int `json:"queue_size"`
	RequestTimeoutMS int `json:"request_timeout_ms"`
	DecayIntervalSec int `json:"decay_interval_sec"`
	SaveIntervalSec  int `json:"save_interval_sec"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".bot2"),
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Emotion: EmotionConfig{
			DecayRate:          0.1,
			TransitionSpeed:    0.3,
			StabilityFactor:    0.7,
			EnergyRecoveryRate: 0.05,
			Sensitivity:        0.6,
			MaxHistory:         100,
		},
		Personality: PersonalityConfig{
			Assertiveness: TraitConfig{
				BaseLevel:      0.6,
				MinLevel:       0.1,
				MaxLevel:       0.9,
				AdaptationRate: 0.1,
			},
			Empathy: TraitConfig{
				BaseLevel:      0.8,
				MinLevel:       0.3,
				MaxLevel:       1.0,
				AdaptationRate: 0.1,
			},
			Curiosity: TraitConfig{
				BaseLevel:      0.9,
				MinLevel:       0.2,
				MaxLevel:       1.0,
				AdaptationRate: 0.1,
			},
		},
		Adaptation: AdaptationConfig{
			LearningRate:   0.1,
			MemoryDecay:    0.95,
			MaxExperiences: 1000,
		},
		Engine: EngineConfig{
			QueueSize:        256,
			RequestTimeoutMS: 2000,
			DecayIntervalSec: 30,
			SaveIntervalSec:  60,
		},
		LogLevel: "info",
	}
}

// Load loads config from file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Env overrides for containerized deployments
	if port := os.Getenv("BOT2_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if dir := os.Getenv("BOT2_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	cfg.sanitize()
	return cfg, nil
}

// sanitize clamps tuning values so a hand-edited file cannot push the
// engine outside its invariants.
func (c *Config) sanitize() {
	clamp := func(v *float64, lo, hi float64) {
		if *v != *v || *v < lo {
			*v = lo
		} else if *v > hi {
			*v = hi
		}
	}
	clamp(&c.Emotion.DecayRate, 0, 1)
	clamp(&c.Emotion.TransitionSpeed, 0, 1)
	clamp(&c.Emotion.StabilityFactor, 0, 1)
	clamp(&c.Emotion.EnergyRecoveryRate, 0, 1)
	clamp(&c.Emotion.Sensitivity, 0, 1)
	if c.Emotion.MaxHistory <= 0 {
		c.Emotion.MaxHistory = 100
	}

	for _, tc := range []*TraitConfig{
		&c.Personality.Assertiveness, &c.Personality.Empathy, &c.Personality.Curiosity,
	} {
		clamp(&tc.MinLevel, 0, 1)
		clamp(&tc.MaxLevel, 0, 1)
		if tc.MaxLevel < tc.MinLevel {
			tc.MinLevel, tc.MaxLevel = tc.MaxLevel, tc.MinLevel
		}
		clamp(&tc.BaseLevel, tc.MinLevel, tc.MaxLevel)
		clamp(&tc.AdaptationRate, 0, 1)
	}

	clamp(&c.Adaptation.LearningRate, 0, 1)
	clamp(&c.Adaptation.MemoryDecay, 0, 1)
	if c.Adaptation.MaxExperiences <= 0 {
		c.Adaptation.MaxExperiences = 1000
	}
	if c.Engine.QueueSize <= 0 {
		c.Engine.QueueSize = 256
	}
	if c.Engine.RequestTimeoutMS <= 0 {
		c.Engine.RequestTimeoutMS = 2000
	}
	if c.Engine.DecayIntervalSec <= 0 {
		c.Engine.DecayIntervalSec = 30
	}
	if c.Engine.SaveIntervalSec <= 0 {
		c.Engine.SaveIntervalSec = 60
	}
}

// SnapshotPath is where the engine persists its full state.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "state.json")
}

// DatabasePath is where the engine keeps its experience database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "bot2.db")
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
