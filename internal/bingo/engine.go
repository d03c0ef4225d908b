// Package bingo implements the ball-draw engine: a shuffled pool of numbers,
// the ordered history of drawn numbers and the automatic draw timer.
package bingo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const (
	DefaultTotal = 90

	persistTimeout = 5 * time.Second
)

// Listener receives engine events. Callbacks run synchronously, in the order
// the engine raises them, while the engine lock is held: a listener must not
// call back into the engine.
type Listener interface {
	OnBallDrawn(value int)
	OnStateChanged(running bool)
	OnGameFinished()
}

type snapshotRepo interface {
	Save(ctx context.Context, snapshot *entity.Snapshot) error
	Load(ctx context.Context) (*entity.Snapshot, error)
	Clear(ctx context.Context) error
}

type Option func(*Engine)

// WithRand sets the random source used for shuffling.
func WithRand(rnd *rand.Rand) Option {
	return func(that *Engine) {
		that.rnd = rnd
	}
}

func WithListener(listener Listener) Option {
	return func(that *Engine) {
		that.listeners = append(that.listeners, listener)
	}
}

type Engine struct {
	logger *slog.Logger
	repo   snapshotRepo
	rnd    *rand.Rand

	mu        sync.Mutex
	listeners []Listener

	total    int
	pool     []int
	history  []int
	state    entity.RunState
	finished bool

	// generation is bumped whenever the timer is cancelled so a tick that
	// was already waiting for the lock sees it is stale.
	generation uint64
	stop       chan struct{}
}

// NewEngine creates an uninitialized engine. repo may be nil, in which case
// nothing is persisted.
func NewEngine(logger *slog.Logger, repo snapshotRepo, opts ...Option) *Engine {
	engine := &Engine{
		logger: logger.With("component", "engine"),
		repo:   repo,
		state:  entity.StateIdle,
	}

	for _, opt := range opts {
		opt(engine)
	}

	if engine.rnd == nil {
		engine.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint: gosec // it's a game
	}

	return engine
}

// Subscribe adds a listener for engine events.
func (that *Engine) Subscribe(listener Listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.listeners = append(that.listeners, listener)
}

// Open restores the persisted game, or starts a fresh one of total balls
// when there is nothing valid to restore.
func (that *Engine) Open(ctx context.Context, total int) error {
	log := that.logger.With("method", "Open")

	if that.LoadSnapshot(ctx) {
		restored := that.Total()
		if restored == total {
			return nil
		}

		log.Info("snapshot ball range differs from configuration, starting a new game",
			"snapshot_total", restored, "total", total)
	}

	return that.Initialize(ctx, total)
}

// Initialize shuffles a new pool of total balls and clears the history.
func (that *Engine) Initialize(ctx context.Context, total int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.initializeLocked(ctx, total)
}

func (that *Engine) initializeLocked(ctx context.Context, total int) error {
	if total < 1 {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidTotal, total)
	}

	if that.state.IsRunning() {
		return apperror.ErrGameRunning
	}

	that.total = total
	that.pool = NewPool(that.rnd, total)
	that.history = make([]int, 0, total)
	that.state = entity.StateIdle
	that.finished = false

	that.persistLocked(ctx)

	that.logger.Info("game initialized", "total", total)

	return nil
}

// DrawOne moves one ball from the pool to the history and returns it. It
// returns false once the pool is exhausted.
func (that *Engine) DrawOne(ctx context.Context) (int, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.drawLocked(ctx)
}

func (that *Engine) drawLocked(ctx context.Context) (int, bool) {
	if that.total == 0 {
		return 0, false
	}

	if len(that.pool) == 0 {
		that.finishLocked()
		return 0, false
	}

	last := len(that.pool) - 1
	ball := that.pool[last]
	that.pool = that.pool[:last]
	that.history = append(that.history, ball)

	that.persistLocked(ctx)

	for _, listener := range that.listeners {
		listener.OnBallDrawn(ball)
	}

	if len(that.pool) == 0 {
		that.finishLocked()
	}

	return ball, true
}

// finishLocked ends the game once; later calls are no-ops.
func (that *Engine) finishLocked() {
	if that.finished {
		return
	}

	if that.state.IsRunning() {
		that.stopTimerLocked()
		that.notifyStateChangedLocked(false)
	}

	that.state = entity.StateFinished
	that.finished = true

	that.logger.Info("game finished", "drawn", len(that.history))

	for _, listener := range that.listeners {
		listener.OnGameFinished()
	}
}

// Start draws a ball every interval until the pool is exhausted, Pause is
// called or ctx is done. Calling Start on a running engine does nothing.
func (that *Engine) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidInterval, interval)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case that.state.IsRunning():
		return nil
	case that.total == 0:
		return apperror.ErrNotInitialized
	case len(that.pool) == 0:
		return apperror.ErrGameFinished
	}

	that.generation++
	that.stop = make(chan struct{})
	that.state = entity.StateRunning

	go that.run(ctx, interval, that.generation, that.stop)

	that.logger.Info("automatic draw started", "interval", interval.String())
	that.notifyStateChangedLocked(true)

	return nil
}

func (that *Engine) run(ctx context.Context, interval time.Duration, generation uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			that.pauseGeneration(generation)
			return
		case <-ticker.C:
			if !that.tick(ctx, generation) {
				return
			}
		}
	}
}

// tick performs one timed draw and reports whether the timer should keep going.
func (that *Engine) tick(ctx context.Context, generation uint64) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.generation != generation || !that.state.IsRunning() {
		return false
	}

	if _, ok := that.drawLocked(ctx); !ok {
		return false
	}

	return that.state.IsRunning()
}

func (that *Engine) pauseGeneration(generation uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.generation == generation {
		that.pauseLocked()
	}
}

// Pause stops the automatic draw. No draw happens after Pause returns.
func (that *Engine) Pause() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pauseLocked()
}

func (that *Engine) pauseLocked() {
	if !that.state.IsRunning() {
		return
	}

	that.stopTimerLocked()
	that.state = entity.StatePaused

	that.logger.Info("automatic draw paused", "drawn", len(that.history))
	that.notifyStateChangedLocked(false)
}

func (that *Engine) stopTimerLocked() {
	that.generation++

	if that.stop != nil {
		close(that.stop)
		that.stop = nil
	}
}

// Restart discards the persisted game and starts a new one with the same
// number of balls. The engine must not be running.
func (that *Engine) Restart(ctx context.Context) error {
	log := that.logger.With("method", "Restart")

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state.IsRunning() {
		return apperror.ErrGameRunning
	}

	if that.repo != nil {
		if err := that.repo.Clear(ctx); err != nil {
			log.Warn("failed to clear snapshot", "error", err)
		}
	}

	total := that.total
	if total == 0 {
		total = DefaultTotal
	}

	return that.initializeLocked(ctx, total)
}

// LoadSnapshot replaces pool and history with the persisted snapshot. It
// returns false when there is no valid snapshot. A restored game is never
// running: it comes back paused, or finished if its pool is empty.
func (that *Engine) LoadSnapshot(ctx context.Context) bool {
	log := that.logger.With("method", "LoadSnapshot")

	if that.repo == nil {
		return false
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state.IsRunning() {
		log.Warn("refusing to load snapshot into a running game")
		return false
	}

	snapshot, err := that.repo.Load(ctx)
	if err == nil {
		err = snapshot.Validate()
	}

	if err != nil {
		if errors.Is(err, apperror.ErrInvalidSnapshot) {
			log.Warn("ignoring invalid snapshot", "error", err)
		} else {
			log.Debug("no snapshot restored", "error", err)
		}

		return false
	}

	restored := snapshot.Clone()
	that.total = restored.Total()
	that.pool = restored.Pool
	that.history = restored.History
	that.finished = len(that.pool) == 0

	if that.finished {
		that.state = entity.StateFinished
	} else {
		that.state = entity.StatePaused
	}

	log.Info("snapshot restored", "total", that.total, "drawn", len(that.history))

	return true
}

func (that *Engine) persistLocked(ctx context.Context) {
	if that.repo == nil {
		return
	}

	// saves are detached from the caller so a draw that happened is recorded
	// even when the caller's context is already done
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	snapshot := &entity.Snapshot{Pool: that.pool, History: that.history}
	if err := that.repo.Save(ctx, snapshot.Clone()); err != nil {
		that.logger.Warn("failed to persist snapshot", "error", err)
	}
}

func (that *Engine) notifyStateChangedLocked(running bool) {
	for _, listener := range that.listeners {
		listener.OnStateChanged(running)
	}
}

func (that *Engine) State() entity.RunState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

func (that *Engine) Total() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.total
}

// Pool returns a copy of the undrawn balls.
func (that *Engine) Pool() []int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]int{}, that.pool...)
}

// History returns a copy of the drawn balls in draw order.
func (that *Engine) History() []int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]int{}, that.history...)
}

func (that *Engine) Snapshot() *entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := &entity.Snapshot{Pool: that.pool, History: that.history}

	return snapshot.Clone()
}
