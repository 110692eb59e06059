package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ASaxcs/bot2/internal/core"
)

// ExperienceStore persists interaction experiences.
type ExperienceStore struct {
	db *DB
}

// NewExperienceStore creates an experience store
func NewExperienceStore(db *DB) *ExperienceStore {
	return &ExperienceStore{db: db}
}

// Save inserts one experience.
func (s *ExperienceStore) Save(exp core.InteractionExperience) error {
	contextJSON, err := json.Marshal(exp.ContextSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	tagsJSON, err := json.Marshal(exp.LearningTags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.conn.Exec(`
		INSERT INTO experiences (id, timestamp, user_input, ai_response, context_json, emotion, success_score, tags_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, exp.ID, exp.Timestamp.UTC().Format(time.RFC3339Nano), exp.UserInput, exp.AIResponse,
		string(contextJSON), string(exp.EmotionAtTime), exp.SuccessScore, string(tagsJSON))
	if err != nil {
		return fmt.Errorf("failed to save experience: %w", err)
	}
	return nil
}

// Get retrieves one experience by ID.
func (s *ExperienceStore) Get(id string) (*core.InteractionExperience, error) {
	row := s.db.conn.QueryRow(`
		SELECT id, timestamp, user_input, ai_response, context_json, emotion, success_score, tags_json
		FROM experiences WHERE id = ?
	`, id)

	exp, err := scanExperience(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrExperienceNotFound
	}
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// List returns the most recent experiences, newest first.
func (s *ExperienceStore) List(limit, offset int) ([]core.InteractionExperience, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.conn.Query(`
		SELECT id, timestamp, user_input, ai_response, context_json, emotion, success_score, tags_json
		FROM experiences ORDER BY timestamp DESC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.InteractionExperience
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *exp)
	}
	return out, rows.Err()
}

// Count returns the total number of stored experiences.
func (s *ExperienceStore) Count() (int, error) {
	var n int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM experiences").Scan(&n)
	return n, err
}

// Prune deletes the oldest experiences beyond max, keeping the store
// count-bounded. Returns how many were deleted.
func (s *ExperienceStore) Prune(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	res, err := s.db.conn.Exec(`
		DELETE FROM experiences WHERE id IN (
			SELECT id FROM experiences ORDER BY timestamp DESC LIMIT -1 OFFSET ?
		)
	`, max)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteOlderThan removes experiences recorded before the cutoff.
// Returns how many were deleted.
func (s *ExperienceStore) DeleteOlderThan(cutoff time.Time) (int, error) {
	res, err := s.db.conn.Exec(
		"DELETE FROM experiences WHERE timestamp < ?",
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountByEmotion returns per-emotion experience counts.
func (s *ExperienceStore) CountByEmotion() (map[core.Emotion]int, error) {
	rows, err := s.db.conn.Query("SELECT emotion, COUNT(*) FROM experiences GROUP BY emotion")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[core.Emotion]int)
	for rows.Next() {
		var emotion string
		var n int
		if err := rows.Scan(&emotion, &n); err != nil {
			return nil, err
		}
		out[core.Emotion(emotion)] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperience(row rowScanner) (*core.InteractionExperience, error) {
	var exp core.InteractionExperience
	var ts, contextJSON, emotion, tagsJSON string

	if err := row.Scan(&exp.ID, &ts, &exp.UserInput, &exp.AIResponse,
		&contextJSON, &emotion, &exp.SuccessScore, &tagsJSON); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	exp.Timestamp = parsed
	exp.EmotionAtTime = core.Emotion(emotion)

	if contextJSON != "" && contextJSON != "null" {
		if err := json.Unmarshal([]byte(contextJSON), &exp.ContextSnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	if tagsJSON != "" && tagsJSON != "null" {
		if err := json.Unmarshal([]byte(tagsJSON), &exp.LearningTags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &exp, nil
}
