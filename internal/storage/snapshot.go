package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ASaxcs/bot2/internal/adaptation"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/logging"
	"github.com/ASaxcs/bot2/internal/trait"
)

// TraitSnapshot is one trait's persisted state.
type TraitSnapshot struct {
	CurrentLevel float64             `json:"current_level"`
	History      []trait.LevelChange `json:"history,omitempty"`
}

// Snapshot is the full persistable engine state.
type Snapshot struct {
	EmotionalState core.EmotionalState              `json:"emotional_state"`
	EmotionHistory []core.EmotionalState            `json:"emotion_history,omitempty"`
	Personality    map[core.TraitName]TraitSnapshot `json:"personality"`
	Adaptation     adaptation.State                 `json:"adaptation"`
	SavedAt        time.Time                        `json:"saved_at"`
}

// SnapshotStore reads and writes the engine snapshot as a JSON file.
// A corrupt file is moved aside rather than overwritten, so the bad
// state stays available for inspection.
type SnapshotStore struct {
	path string
	log  *logging.Logger
}

// NewSnapshotStore creates a snapshot store at path
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{
		path: path,
		log:  logging.Component("snapshot"),
	}
}

// Save writes the snapshot atomically (temp file plus rename).
func (s *SnapshotStore) Save(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot. A missing file returns ErrSnapshotMissing.
// A corrupt file, malformed JSON or an unknown emotion, is renamed with
// a .corrupt suffix and reported as ErrSnapshotCorrupt; the caller
// falls back to defaults.
func (s *SnapshotStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, core.ErrSnapshotMissing
		}
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, s.quarantine(err)
	}
	if err := validateSnapshot(snap); err != nil {
		return Snapshot{}, s.quarantine(err)
	}

	return snap, nil
}

// quarantine moves the bad snapshot aside and wraps the decode error.
func (s *SnapshotStore) quarantine(cause error) error {
	backup := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if renameErr := os.Rename(s.path, backup); renameErr != nil {
		s.log.Error("failed to move corrupt snapshot aside: %v", renameErr)
	} else {
		s.log.Warn("corrupt snapshot moved to %s", backup)
	}
	return fmt.Errorf("%w: %v", core.ErrSnapshotCorrupt, cause)
}

func validateSnapshot(snap Snapshot) error {
	if !core.KnownEmotion(snap.EmotionalState.PrimaryEmotion) {
		return fmt.Errorf("unknown emotion %q", snap.EmotionalState.PrimaryEmotion)
	}
	for emotion := range snap.EmotionalState.SecondaryEmotions {
		if !core.KnownEmotion(emotion) {
			return fmt.Errorf("unknown secondary emotion %q", emotion)
		}
	}
	for name := range snap.Personality {
		if !core.KnownTrait(name) {
			return fmt.Errorf("unknown trait %q", name)
		}
	}
	return nil
}

// Exists reports whether a snapshot file is present.
func (s *SnapshotStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// IsNotUsable reports whether a load error means "start fresh" rather
// than a real I/O failure.
func IsNotUsable(err error) bool {
	return errors.Is(err, core.ErrSnapshotMissing) || errors.Is(err, core.ErrSnapshotCorrupt)
}
