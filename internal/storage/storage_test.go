package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ASaxcs/bot2/internal/adaptation"
	"github.com/ASaxcs/bot2/internal/core"
)

// testDB creates an in-memory database for testing
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func sampleExperience(id string, at time.Time) core.InteractionExperience {
	return core.InteractionExperience{
		ID:              id,
		Timestamp:       at,
		UserInput:       "how do tides work?",
		AIResponse:      "The moon's gravity pulls the oceans into bulges.",
		ContextSnapshot: map[string]string{"channel": "api"},
		EmotionAtTime:   core.EmotionCuriosity,
		SuccessScore:    0.8,
		LearningTags:    []string{"information_seeking"},
	}
}

// =============================================================================
// DB Tests
// =============================================================================

func TestDB_Open_InMemory(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.conn == nil {
		t.Error("db.conn should not be nil")
	}
	if !db.isMemory {
		t.Error("db.isMemory should be true for in-memory database")
	}
}

func TestDB_Open_File(t *testing.T) {
	tmpDir := t.TempDir()
	path := tmpDir + "/test.db"

	db, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.isMemory {
		t.Error("db.isMemory should be false for file database")
	}
	if db.path != path {
		t.Errorf("db.path = %s, want %s", db.path, path)
	}
}

func TestDB_MigrateIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

// =============================================================================
// ExperienceStore Tests
// =============================================================================

func TestExperienceStore_SaveAndGet(t *testing.T) {
	db := testDB(t)
	store := NewExperienceStore(db)

	exp := sampleExperience("exp-1", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	if err := store.Save(exp); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get("exp-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserInput != exp.UserInput || got.EmotionAtTime != exp.EmotionAtTime {
		t.Errorf("Get() = %+v, want %+v", got, exp)
	}
	if got.ContextSnapshot["channel"] != "api" {
		t.Errorf("context = %v", got.ContextSnapshot)
	}
	if !got.Timestamp.Equal(exp.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, exp.Timestamp)
	}
}

func TestExperienceStore_GetMissing(t *testing.T) {
	db := testDB(t)
	store := NewExperienceStore(db)

	_, err := store.Get("nope")
	if !errors.Is(err, core.ErrExperienceNotFound) {
		t.Errorf("Get() error = %v, want ErrExperienceNotFound", err)
	}
}

func TestExperienceStore_ListNewestFirst(t *testing.T) {
	db := testDB(t)
	store := NewExperienceStore(db)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		exp := sampleExperience(fmt.Sprintf("exp-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(exp); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List(3, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d, want 3", len(got))
	}
	if got[0].ID != "exp-4" {
		t.Errorf("first item = %s, want exp-4", got[0].ID)
	}
}

func TestExperienceStore_Prune(t *testing.T) {
	db := testDB(t)
	store := NewExperienceStore(db)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		if err := store.Save(sampleExperience(fmt.Sprintf("exp-%d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.Prune(4)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 6 {
		t.Errorf("Prune() deleted %d, want 6", deleted)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}

	// The newest survive.
	if _, err := store.Get("exp-9"); err != nil {
		t.Errorf("newest experience pruned: %v", err)
	}
	if _, err := store.Get("exp-0"); !errors.Is(err, core.ErrExperienceNotFound) {
		t.Error("oldest experience should be pruned")
	}
}

func TestExperienceStore_DeleteOlderThan(t *testing.T) {
	db := testDB(t)
	store := NewExperienceStore(db)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		if err := store.Save(sampleExperience(fmt.Sprintf("exp-%d", i), base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.DeleteOlderThan(base.Add(3 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("DeleteOlderThan() deleted %d, want 3", deleted)
	}

	// Entries at or after the cutoff survive.
	if _, err := store.Get("exp-3"); err != nil {
		t.Errorf("experience at cutoff deleted: %v", err)
	}
	if _, err := store.Get("exp-2"); !errors.Is(err, core.ErrExperienceNotFound) {
		t.Error("experience before cutoff should be deleted")
	}
}

func TestExperienceStore_CountByEmotion(t *testing.T) {
	db := testDB(t)
	store := NewExperienceStore(db)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		exp := sampleExperience(fmt.Sprintf("joy-%d", i), base)
		exp.EmotionAtTime = core.EmotionJoy
		if err := store.Save(exp); err != nil {
			t.Fatal(err)
		}
	}
	exp := sampleExperience("sad-0", base)
	exp.EmotionAtTime = core.EmotionSadness
	if err := store.Save(exp); err != nil {
		t.Fatal(err)
	}

	counts, err := store.CountByEmotion()
	if err != nil {
		t.Fatal(err)
	}
	if counts[core.EmotionJoy] != 3 || counts[core.EmotionSadness] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

// =============================================================================
// StateLog Tests
// =============================================================================

func TestStateLog_AppendAndRecent(t *testing.T) {
	db := testDB(t)
	log := NewStateLog(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	levels := core.PersonalityLevels{Assertiveness: 0.6, Empathy: 0.8, Curiosity: 0.9}
	for i := 1; i <= 5; i++ {
		state := core.NeutralState(now.Add(time.Duration(i) * time.Minute))
		state.Intensity = float64(i) / 10
		if err := log.Append(int64(i), state, levels); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, err := log.Recent(3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent() returned %d, want 3", len(entries))
	}
	if entries[0].Seq != 5 {
		t.Errorf("first seq = %d, want 5", entries[0].Seq)
	}
	if entries[0].Personality != levels {
		t.Errorf("personality = %+v, want %+v", entries[0].Personality, levels)
	}
}

func TestStateLog_Trim(t *testing.T) {
	db := testDB(t)
	log := NewStateLog(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 10; i++ {
		if err := log.Append(int64(i), core.NeutralState(now), core.PersonalityLevels{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := log.Trim(4); err != nil {
		t.Fatalf("Trim() error = %v", err)
	}

	entries, err := log.Recent(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("after trim: %d entries, want 4", len(entries))
	}
}

// =============================================================================
// SnapshotStore Tests
// =============================================================================

func TestSnapshotStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewSnapshotStore(path)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		EmotionalState: core.EmotionalState{
			PrimaryEmotion:    core.EmotionJoy,
			Intensity:         0.4,
			SecondaryEmotions: map[core.Emotion]float64{core.EmotionSurprise: 0.2},
			EnergyLevel:       0.8,
			Stability:         0.9,
			UpdatedAt:         now,
		},
		Personality: map[core.TraitName]TraitSnapshot{
			core.TraitAssertiveness: {CurrentLevel: 0.65},
			core.TraitEmpathy:       {CurrentLevel: 0.82},
			core.TraitCuriosity:     {CurrentLevel: 0.88},
		},
		Adaptation: adaptation.State{
			Momentum: adaptation.Momentum{Positive: 2.5},
		},
		SavedAt: now,
	}

	if err := store.Save(snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.EmotionalState.PrimaryEmotion != core.EmotionJoy {
		t.Errorf("loaded emotion = %s", got.EmotionalState.PrimaryEmotion)
	}
	if got.Personality[core.TraitEmpathy].CurrentLevel != 0.82 {
		t.Errorf("loaded empathy = %v", got.Personality[core.TraitEmpathy].CurrentLevel)
	}
	if got.Adaptation.Momentum.Positive != 2.5 {
		t.Errorf("loaded momentum = %v", got.Adaptation.Momentum.Positive)
	}
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "absent.json"))

	_, err := store.Load()
	if !errors.Is(err, core.ErrSnapshotMissing) {
		t.Errorf("Load() error = %v, want ErrSnapshotMissing", err)
	}
	if !IsNotUsable(err) {
		t.Error("missing snapshot should be classified as not usable")
	}
}

func TestSnapshotStore_CorruptMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	store := NewSnapshotStore(path)

	_, err := store.Load()
	if !errors.Is(err, core.ErrSnapshotCorrupt) {
		t.Fatalf("Load() error = %v, want ErrSnapshotCorrupt", err)
	}
	if !IsNotUsable(err) {
		t.Error("corrupt snapshot should be classified as not usable")
	}

	// Original file moved aside, backup created.
	if store.Exists() {
		t.Error("corrupt file should have been moved away")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range entries {
		if len(e.Name()) > len("state.json") && e.Name()[:10] == "state.json" {
			found = true
		}
	}
	if !found {
		t.Errorf("no backup file in %v", entries)
	}
}

func TestSnapshotStore_UnknownEmotionRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	// Well-formed JSON, but the mood is not part of the vocabulary.
	raw := `{
		"emotional_state": {
			"current_mood": "melancholia",
			"intensity": 0.85,
			"energy_level": 0.2,
			"stability": 0.3
		},
		"personality": {}
	}`
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatal(err)
	}
	store := NewSnapshotStore(path)

	_, err := store.Load()
	if !errors.Is(err, core.ErrSnapshotCorrupt) {
		t.Fatalf("Load() error = %v, want ErrSnapshotCorrupt", err)
	}
	if !IsNotUsable(err) {
		t.Error("unknown-emotion snapshot should be classified as not usable")
	}
	if store.Exists() {
		t.Error("bad snapshot should have been moved away")
	}
}

func TestSnapshotStore_UnknownTraitRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	raw := `{
		"emotional_state": {"current_mood": "joy", "intensity": 0.4},
		"personality": {"patience": {"current_level": 0.5}}
	}`
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewSnapshotStore(path).Load()
	if !errors.Is(err, core.ErrSnapshotCorrupt) {
		t.Fatalf("Load() error = %v, want ErrSnapshotCorrupt", err)
	}
}
