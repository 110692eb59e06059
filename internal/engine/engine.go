// Package engine owns the affective state. A single goroutine applies
// every mutation in arrival order, so the emotion machine, the trait
// adapters and the adaptation coordinator never see concurrent access.
// Readers get lock-free copies of the latest published view.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ASaxcs/bot2/internal/adaptation"
	"github.com/ASaxcs/bot2/internal/config"
	"github.com/ASaxcs/bot2/internal/core"
	"github.com/ASaxcs/bot2/internal/emotion"
	"github.com/ASaxcs/bot2/internal/logging"
	"github.com/ASaxcs/bot2/internal/storage"
	"github.com/ASaxcs/bot2/internal/trait"
	"github.com/ASaxcs/bot2/internal/trigger"
)

// stateLogKeep bounds the on-disk state history.
const stateLogKeep = 1000

// experienceRetention is how long recorded experiences stay queryable
// before the save pass expires them, independent of the count bound.
const experienceRetention = 30 * 24 * time.Hour

// View is the immutable read model published after every mutation.
// Readers always see a complete, consistent state.
type View struct {
	Seq         int64                  `json:"seq"`
	State       core.EmotionalState    `json:"state"`
	Personality core.PersonalityLevels `json:"personality"`
	Influence   core.ResponseInfluence `json:"influence"`
}

type result struct {
	value any
	err   error
}

type command struct {
	run   func(now time.Time) (any, error)
	reply chan result
}

// Config wires the engine's collaborators.
type Config struct {
	Settings *config.Config
	DB       *storage.DB

	// Snapshots overrides the default snapshot path under DataDir.
	Snapshots *storage.SnapshotStore

	// Clock overrides time.Now, used by tests.
	Clock func() time.Time
}

// Engine is the single owner of all mutable affective state.
type Engine struct {
	settings *config.Config
	log      *logging.Logger
	clock    func() time.Time
	timeout  time.Duration

	// Owned by the run loop. Never touched from other goroutines.
	machine *emotion.Machine
	traits  *trait.Set
	coord   *adaptation.Coordinator
	detect  *trigger.Detector
	events  *trigger.EventDetector

	experiences *storage.ExperienceStore
	stateLog    *storage.StateLog
	snapshots   *storage.SnapshotStore

	cmds chan command
	quit chan struct{}
	wg   sync.WaitGroup

	started  atomic.Bool
	closed   atomic.Bool
	stopOnce sync.Once
	view     atomic.Pointer[View]

	// Owner-only bookkeeping.
	seq       int64
	dirty     bool
	restored  bool
	startedAt time.Time
}

// New creates an engine. Call Start before submitting work.
func New(cfg Config) *Engine {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	snapshots := cfg.Snapshots
	if snapshots == nil {
		snapshots = storage.NewSnapshotStore(settings.SnapshotPath())
	}

	now := clock()
	e := &Engine{
		settings:    settings,
		log:         logging.Component("engine"),
		clock:       clock,
		timeout:     time.Duration(settings.Engine.RequestTimeoutMS) * time.Millisecond,
		machine:     emotion.NewMachine(settings.Emotion, now),
		traits:      trait.NewSet(settings.Personality),
		coord:       adaptation.NewCoordinator(settings.Adaptation),
		detect:      trigger.NewDetector(settings.Emotion.Sensitivity),
		events:      trigger.NewEventDetector(settings.Emotion.Sensitivity),
		experiences: storage.NewExperienceStore(cfg.DB),
		stateLog:    storage.NewStateLog(cfg.DB),
		snapshots:   snapshots,
		cmds:        make(chan command, settings.Engine.QueueSize),
		quit:        make(chan struct{}),
	}
	e.publish()
	return e
}

// Start restores persisted state and launches the owner goroutine.
func (e *Engine) Start(ctx context.Context) error {
	if e.closed.Load() {
		return core.ErrEngineClosed
	}
	if !e.started.CompareAndSwap(false, true) {
		return core.ErrEngineRunning
	}

	e.startedAt = e.clock()
	snap, err := e.snapshots.Load()
	switch {
	case err == nil:
		e.applySnapshot(snap)
		e.restored = true
		e.log.Info("state restored from snapshot saved %s", snap.SavedAt.Format(time.RFC3339))
	case storage.IsNotUsable(err):
		e.log.Info("no usable snapshot, starting fresh")
	default:
		e.log.Error("load snapshot: %v", err)
	}
	e.publish()

	e.wg.Add(1)
	go e.run(ctx)
	e.log.Info("engine started (queue=%d timeout=%s)", cap(e.cmds), e.timeout)
	return nil
}

// Stop drains pending commands, saves once and shuts the owner down.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.closed.Store(true)
		close(e.quit)
		e.wg.Wait()
		e.log.Info("engine stopped at seq %d", e.Sequence())
	})
}

// Sequence returns the latest published mutation sequence number.
func (e *Engine) Sequence() int64 {
	return e.view.Load().Seq
}

// Snapshot returns the latest published view.
func (e *Engine) Snapshot() View {
	return *e.view.Load()
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			e.drain()
			return
		case <-e.quit:
			e.drain()
			return
		case cmd := <-e.cmds:
			e.execute(cmd)
		}
	}
}

// drain finishes queued commands, then writes a final snapshot.
func (e *Engine) drain() {
	for {
		select {
		case cmd := <-e.cmds:
			e.execute(cmd)
		default:
			if e.dirty {
				if err := e.persist(e.clock()); err != nil {
					e.log.Error("final save: %v", err)
				}
			}
			return
		}
	}
}

func (e *Engine) execute(cmd command) {
	value, err := cmd.run(e.clock())
	cmd.reply <- result{value: value, err: err}
}

// submit hands a command to the owner and waits for the reply. The wait
// is bounded; a timed-out command still runs, only the reply is dropped.
func (e *Engine) submit(run func(now time.Time) (any, error)) (any, error) {
	if e.closed.Load() {
		return nil, core.ErrEngineClosed
	}
	cmd := command{run: run, reply: make(chan result, 1)}
	select {
	case e.cmds <- cmd:
	default:
		return nil, core.ErrQueueFull
	}
	select {
	case res := <-cmd.reply:
		return res.value, res.err
	case <-time.After(e.timeout):
		return nil, core.ErrRequestTimeout
	}
}

// publish installs a fresh read view. Owner-only, except for the
// initial call in New and Start before the loop exists.
func (e *Engine) publish() {
	state := e.machine.State()
	e.view.Store(&View{
		Seq:         e.seq,
		State:       state,
		Personality: e.traits.Levels(),
		Influence:   emotion.Influence(state),
	})
}

// noteChange records one applied mutation: bumps the sequence, marks
// the state dirty for the next coalesced save, publishes the new view
// and appends to the durable state log.
func (e *Engine) noteChange() {
	e.seq++
	e.dirty = true
	e.publish()
	if err := e.stateLog.Append(e.seq, e.machine.State(), e.traits.Levels()); err != nil {
		e.log.Warn("state log append: %v", err)
	}
}

func (e *Engine) buildSnapshot(now time.Time) storage.Snapshot {
	personality := make(map[core.TraitName]storage.TraitSnapshot, len(core.AllTraits))
	for _, adapter := range e.traits.All() {
		personality[adapter.Name()] = storage.TraitSnapshot{
			CurrentLevel: adapter.Level(),
			History:      adapter.History(),
		}
	}
	return storage.Snapshot{
		EmotionalState: e.machine.State(),
		EmotionHistory: e.machine.History(0),
		Personality:    personality,
		Adaptation:     e.coord.Export(),
		SavedAt:        now,
	}
}

func (e *Engine) applySnapshot(snap storage.Snapshot) {
	e.machine.Restore(snap.EmotionalState, snap.EmotionHistory)
	for name, ts := range snap.Personality {
		if adapter, ok := e.traits.ByName(name); ok {
			adapter.Restore(ts.CurrentLevel, ts.History)
		}
	}
	e.coord.Restore(snap.Adaptation)
}

// persist writes the snapshot and runs storage maintenance. Owner-only.
func (e *Engine) persist(now time.Time) error {
	if err := e.snapshots.Save(e.buildSnapshot(now)); err != nil {
		return err
	}
	e.dirty = false
	if max := e.settings.Adaptation.MaxExperiences; max > 0 {
		if n, err := e.experiences.Prune(max); err != nil {
			e.log.Warn("prune experiences: %v", err)
		} else if n > 0 {
			e.log.Debug("pruned %d old experiences", n)
		}
	}
	if n, err := e.experiences.DeleteOlderThan(now.Add(-experienceRetention)); err != nil {
		e.log.Warn("expire experiences: %v", err)
	} else if n > 0 {
		e.log.Debug("expired %d experiences past retention", n)
	}
	if err := e.stateLog.Trim(stateLogKeep); err != nil {
		e.log.Warn("trim state log: %v", err)
	}
	return nil
}
