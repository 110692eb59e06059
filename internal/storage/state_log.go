package storage

import (
	"time"

	"github.com/ASaxcs/bot2/internal/core"
)

// StateLogEntry is one row in the periodic state log.
type StateLogEntry struct {
	Seq         int64                  `json:"seq"`
	LoggedAt    time.Time              `json:"logged_at"`
	Emotion     core.Emotion           `json:"primary_emotion"`
	Intensity   float64                `json:"intensity"`
	EnergyLevel float64                `json:"energy_level"`
	Stability   float64                `json:"stability"`
	Personality core.PersonalityLevels `json:"personality"`
}

// StateLog records emotional and personality state over time.
type StateLog struct {
	db *DB
}

// NewStateLog creates a state log
func NewStateLog(db *DB) *StateLog {
	return &StateLog{db: db}
}

// Append writes one state row keyed by the engine's sequence number.
// Re-logging the same sequence replaces the row.
func (l *StateLog) Append(seq int64, state core.EmotionalState, levels core.PersonalityLevels) error {
	_, err := l.db.conn.Exec(`
		INSERT OR REPLACE INTO state_log
			(seq, logged_at, primary_emotion, intensity, energy_level, stability, assertiveness, empathy, curiosity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, seq, state.UpdatedAt.UTC().Format(time.RFC3339Nano), string(state.PrimaryEmotion),
		state.Intensity, state.EnergyLevel, state.Stability,
		levels.Assertiveness, levels.Empathy, levels.Curiosity)
	return err
}

// Recent returns the newest entries, newest first.
func (l *StateLog) Recent(limit int) ([]StateLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.conn.Query(`
		SELECT seq, logged_at, primary_emotion, intensity, energy_level, stability,
		       assertiveness, empathy, curiosity
		FROM state_log ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StateLogEntry
	for rows.Next() {
		var e StateLogEntry
		var ts, emotion string
		if err := rows.Scan(&e.Seq, &ts, &emotion, &e.Intensity, &e.EnergyLevel, &e.Stability,
			&e.Personality.Assertiveness, &e.Personality.Empathy, &e.Personality.Curiosity); err != nil {
			return nil, err
		}
		if e.LoggedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, err
		}
		e.Emotion = core.Emotion(emotion)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Trim keeps only the newest max rows.
func (l *StateLog) Trim(max int) error {
	if max <= 0 {
		return nil
	}
	_, err := l.db.conn.Exec(`
		DELETE FROM state_log WHERE seq IN (
			SELECT seq FROM state_log ORDER BY seq DESC LIMIT -1 OFFSET ?
		)
	`, max)
	return err
}
