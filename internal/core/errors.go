package core

import "errors"

// Core errors that can occur across the system
var (
	// Engine lifecycle errors
	ErrEngineClosed   = errors.New("engine is closed")
	ErrEngineRunning  = errors.New("engine already running")
	ErrQueueFull      = errors.New("command queue is full")
	ErrRequestTimeout = errors.New("request timed out waiting for state owner")

	// Validation errors
	ErrUnknownEmotion = errors.New("unknown emotion category")
	ErrUnknownTrait   = errors.New("unknown personality trait")
	ErrInvalidScore   = errors.New("score outside [0,1]")
	ErrEmptyInput     = errors.New("empty input text")

	// Storage errors
	ErrSnapshotCorrupt    = errors.New("snapshot file is corrupt")
	ErrSnapshotMissing    = errors.New("snapshot file does not exist")
	ErrExperienceNotFound = errors.New("experience not found")
	ErrMigrationFailed    = errors.New("migration failed")
)
