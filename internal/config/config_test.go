package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// Default Config Tests
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify DataDir is set
	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}

	// Verify Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "localhost")
	}

	// Verify emotion defaults
	if cfg.Emotion.DecayRate != 0.1 {
		t.Errorf("Emotion.DecayRate = %v, want 0.1", cfg.Emotion.DecayRate)
	}
	if cfg.Emotion.TransitionSpeed != 0.3 {
		t.Errorf("Emotion.TransitionSpeed = %v, want 0.3", cfg.Emotion.TransitionSpeed)
	}
	if cfg.Emotion.Sensitivity != 0.6 {
		t.Errorf("Emotion.Sensitivity = %v, want 0.6", cfg.Emotion.Sensitivity)
	}
	if cfg.Emotion.MaxHistory != 100 {
		t.Errorf("Emotion.MaxHistory = %d, want 100", cfg.Emotion.MaxHistory)
	}

	// Verify personality defaults
	if cfg.Personality.Assertiveness.BaseLevel != 0.6 {
		t.Errorf("Assertiveness.BaseLevel = %v, want 0.6", cfg.Personality.Assertiveness.BaseLevel)
	}
	if cfg.Personality.Empathy.BaseLevel != 0.8 {
		t.Errorf("Empathy.BaseLevel = %v, want 0.8", cfg.Personality.Empathy.BaseLevel)
	}
	if cfg.Personality.Curiosity.BaseLevel != 0.9 {
		t.Errorf("Curiosity.BaseLevel = %v, want 0.9", cfg.Personality.Curiosity.BaseLevel)
	}

	// Verify adaptation defaults
	if cfg.Adaptation.LearningRate != 0.1 {
		t.Errorf("Adaptation.LearningRate = %v, want 0.1", cfg.Adaptation.LearningRate)
	}
	if cfg.Adaptation.MemoryDecay != 0.95 {
		t.Errorf("Adaptation.MemoryDecay = %v, want 0.95", cfg.Adaptation.MemoryDecay)
	}

	// Verify engine defaults
	if cfg.Engine.QueueSize != 256 {
		t.Errorf("Engine.QueueSize = %d, want 256", cfg.Engine.QueueSize)
	}
	if cfg.Engine.RequestTimeoutMS != 2000 {
		t.Errorf("Engine.RequestTimeoutMS = %d, want 2000", cfg.Engine.RequestTimeoutMS)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestDefault_DataDir(t *testing.T) {
	cfg := Default()

	if !filepath.IsAbs(cfg.DataDir) {
		t.Error("DataDir should be an absolute path")
	}

	if filepath.Base(cfg.DataDir) != ".bot2" {
		t.Errorf("DataDir should end with .bot2, got %q", filepath.Base(cfg.DataDir))
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/bot2"

	if got := cfg.SnapshotPath(); got != "/var/lib/bot2/state.json" {
		t.Errorf("SnapshotPath() = %q", got)
	}
	if got := cfg.DatabasePath(); got != "/var/lib/bot2/bot2.db" {
		t.Errorf("DatabasePath() = %q", got)
	}
}

// =============================================================================
// Load Config Tests
// =============================================================================

func TestLoad_NonExistentFile(t *testing.T) {
	// Load from non-existent file should return defaults
	cfg, err := Load("/non/existent/path/config.json")

	if err != nil {
		t.Fatalf("Load() error = %v, want nil for non-existent file", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	// Should have defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	// Empty path should use default path
	cfg, err := Load("")

	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
}

func TestLoad_ValidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	testConfig := Default()
	testConfig.DataDir = tmpDir
	testConfig.Server.Port = 9090
	testConfig.Server.Host = "0.0.0.0"
	testConfig.Emotion.Sensitivity = 0.8
	testConfig.Adaptation.LearningRate = 0.2
	testConfig.LogLevel = "debug"

	data, err := json.Marshal(testConfig)
	if err != nil {
		t.Fatalf("failed to marshal test config: %v", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Emotion.Sensitivity != 0.8 {
		t.Errorf("Emotion.Sensitivity = %v, want 0.8", cfg.Emotion.Sensitivity)
	}
	if cfg.Adaptation.LearningRate != 0.2 {
		t.Errorf("Adaptation.LearningRate = %v, want 0.2", cfg.Adaptation.LearningRate)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	os.WriteFile(configPath, []byte(`{"server":{"port":9090},"data_dir":"/from/file"}`), 0644)

	os.Setenv("BOT2_PORT", "7070")
	os.Setenv("BOT2_DATA_DIR", "/from/env")
	defer os.Unsetenv("BOT2_PORT")
	defer os.Unsetenv("BOT2_DATA_DIR")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070 (env override)", cfg.Server.Port)
	}
	if cfg.DataDir != "/from/env" {
		t.Errorf("DataDir = %q, want %q (env override)", cfg.DataDir, "/from/env")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	// Write invalid JSON
	os.WriteFile(configPath, []byte("{ invalid json }"), 0644)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for invalid JSON")
	}
}

func TestLoad_PartialConfig(t *testing.T) {
	// A file that only overrides some fields keeps defaults for the rest
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	partialConfig := map[string]interface{}{
		"server": map[string]interface{}{
			"port": 3000,
		},
	}

	data, _ := json.Marshal(partialConfig)
	os.WriteFile(configPath, data, 0644)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Emotion.DecayRate != 0.1 {
		t.Errorf("Emotion.DecayRate = %v, want default 0.1", cfg.Emotion.DecayRate)
	}
}

func TestLoad_SanitizesValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	// Out-of-range tuning values should be clamped, not trusted
	raw := `{
		"emotion": {"decay_rate": 5.0, "sensitivity": -1.0, "max_history": 0},
		"personality": {"empathy": {"base_level": 2.0, "min_level": 0.3, "max_level": 1.0}},
		"engine": {"queue_size": -10, "request_timeout_ms": 0}
	}`
	os.WriteFile(configPath, []byte(raw), 0644)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Emotion.DecayRate != 1.0 {
		t.Errorf("Emotion.DecayRate = %v, want clamped to 1.0", cfg.Emotion.DecayRate)
	}
	if cfg.Emotion.Sensitivity != 0.0 {
		t.Errorf("Emotion.Sensitivity = %v, want clamped to 0.0", cfg.Emotion.Sensitivity)
	}
	if cfg.Emotion.MaxHistory != 100 {
		t.Errorf("Emotion.MaxHistory = %d, want fallback 100", cfg.Emotion.MaxHistory)
	}
	if cfg.Personality.Empathy.BaseLevel != 1.0 {
		t.Errorf("Empathy.BaseLevel = %v, want clamped to MaxLevel 1.0", cfg.Personality.Empathy.BaseLevel)
	}
	if cfg.Engine.QueueSize != 256 {
		t.Errorf("Engine.QueueSize = %d, want fallback 256", cfg.Engine.QueueSize)
	}
	if cfg.Engine.RequestTimeoutMS != 2000 {
		t.Errorf("Engine.RequestTimeoutMS = %d, want fallback 2000", cfg.Engine.RequestTimeoutMS)
	}
}

func TestLoad_SwapsInvertedTraitBounds(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	raw := `{"personality": {"curiosity": {"base_level": 0.5, "min_level": 0.9, "max_level": 0.2, "adaptation_rate": 0.1}}}`
	os.WriteFile(configPath, []byte(raw), 0644)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c := cfg.Personality.Curiosity
	if c.MinLevel != 0.2 || c.MaxLevel != 0.9 {
		t.Errorf("Curiosity bounds = [%v, %v], want [0.2, 0.9]", c.MinLevel, c.MaxLevel)
	}
	if c.BaseLevel < c.MinLevel || c.BaseLevel > c.MaxLevel {
		t.Errorf("Curiosity.BaseLevel %v outside [%v, %v]", c.BaseLevel, c.MinLevel, c.MaxLevel)
	}
}

func TestLoad_ReadPermissionError(t *testing.T) {
	// Skip on Windows as permission handling is different
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("Skipping permission test as root")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	os.WriteFile(configPath, []byte(`{"server":{"port":8080}}`), 0644)

	// Remove read permission
	os.Chmod(configPath, 0000)
	defer os.Chmod(configPath, 0644) // Restore for cleanup

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for unreadable file")
	}
}

// =============================================================================
// Save Config Tests
// =============================================================================

func TestSave_CreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.json")

	cfg := Default()
	cfg.DataDir = tmpDir
	cfg.Server.Port = 9999

	err := cfg.Save(configPath)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Verify content
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("failed to unmarshal saved config: %v", err)
	}

	if loaded.Server.Port != 9999 {
		t.Errorf("saved Server.Port = %d, want 9999", loaded.Server.Port)
	}
}

func TestSave_EmptyPath(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.DataDir = tmpDir

	// Save with empty path should use default path
	err := cfg.Save("")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	defaultPath := filepath.Join(tmpDir, "config.json")
	if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
		t.Errorf("config file was not created at default path: %s", defaultPath)
	}
}

func TestSave_FilePermissions(t *testing.T) {
	// Skip on Windows
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := Default()
	cfg.Save(configPath)

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("failed to stat config file: %v", err)
	}

	// File should have 0600 permissions (owner read/write only)
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestSave_DirectoryPermissions(t *testing.T) {
	// Skip on Windows
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}

	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "newdir")
	configPath := filepath.Join(subDir, "config.json")

	cfg := Default()
	cfg.Save(configPath)

	info, err := os.Stat(subDir)
	if err != nil {
		t.Fatalf("failed to stat directory: %v", err)
	}

	// Directory should have 0700 permissions
	perm := info.Mode().Perm()
	if perm != 0700 {
		t.Errorf("directory permissions = %o, want 0700", perm)
	}
}

func TestSave_PrettyPrints(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := Default()
	cfg.Save(configPath)

	data, _ := os.ReadFile(configPath)

	// Should contain newlines (pretty printed)
	if !strings.Contains(string(data), "\n") {
		t.Error("saved config should be pretty-printed with newlines")
	}

	// Should contain indentation
	if !strings.Contains(string(data), "  ") {
		t.Error("saved config should be indented")
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

func TestLoadAndSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	original := Default()
	original.DataDir = tmpDir
	original.Server.Port = 5000
	original.Emotion.Sensitivity = 0.75
	original.LogLevel = "debug"

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Server.Port != original.Server.Port {
		t.Errorf("loaded Server.Port = %d, want %d", loaded.Server.Port, original.Server.Port)
	}
	if loaded.Emotion.Sensitivity != original.Emotion.Sensitivity {
		t.Errorf("loaded Emotion.Sensitivity = %v, want %v", loaded.Emotion.Sensitivity, original.Emotion.Sensitivity)
	}
	if loaded.LogLevel != original.LogLevel {
		t.Errorf("loaded LogLevel = %q, want %q", loaded.LogLevel, original.LogLevel)
	}
}

// =============================================================================
// Benchmark Tests
// =============================================================================

func BenchmarkDefault(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Default()
	}
}

func BenchmarkLoad_ExistingFile(b *testing.B) {
	tmpDir := b.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := Default()
	cfg.Save(configPath)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Load(configPath)
	}
}

func BenchmarkSave(b *testing.B) {
	tmpDir := b.TempDir()

	cfg := Default()
	cfg.DataDir = tmpDir

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		configPath := filepath.Join(tmpDir, "config.json")
		cfg.Save(configPath)
	}
}
