// Package presenter turns engine events into the view shown in the browser
// and user actions into engine calls.
package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/audio"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const (
	MinSpeed     = 1
	MaxSpeed     = 10
	DefaultSpeed = 3

	DefaultFinishDelay = 900 * time.Millisecond
)

type drawEngine interface {
	Start(ctx context.Context, interval time.Duration) error
	Pause()
	Restart(ctx context.Context) error
	DrawOne(ctx context.Context) (int, bool)
	State() entity.RunState
	History() []int
	Total() int
}

type publisher interface {
	Publish(event Event)
}

type Option func(*Presenter)

func WithSpeed(seconds int) Option {
	return func(that *Presenter) {
		if validSpeed(seconds) {
			that.speed = seconds
		}
	}
}

func WithFinishDelay(delay time.Duration) Option {
	return func(that *Presenter) {
		that.finishDelay = delay
	}
}

type Presenter struct {
	logger      *slog.Logger
	engine      drawEngine
	publisher   publisher
	player      audio.Player
	finishDelay time.Duration

	mu      sync.Mutex
	state   entity.RunState
	cells   []bool
	history []int
	result  string
	speed   int
	started bool

	// game is bumped on every reset so a pending terminal message from the
	// previous game is dropped.
	game        uint64
	finishTimer *time.Timer
}

func New(logger *slog.Logger, engine drawEngine, publisher publisher, player audio.Player, opts ...Option) *Presenter {
	presenter := &Presenter{
		logger:      logger.With("component", "presenter"),
		engine:      engine,
		publisher:   publisher,
		player:      player,
		finishDelay: DefaultFinishDelay,
		speed:       DefaultSpeed,
	}

	for _, opt := range opts {
		opt(presenter)
	}

	return presenter
}

// OnBallDrawn marks the cell and plays the cue. A failing cue is logged and ignored.
func (that *Presenter) OnBallDrawn(value int) {
	log := that.logger.With("method", "OnBallDrawn")

	cue, err := that.player.Play(context.Background(), value)
	if err != nil {
		log.Warn("failed to play audio cue", "ball", value, "error", err)
	}

	that.mu.Lock()
	if value >= 1 && value < len(that.cells) {
		that.cells[value] = true
	}
	that.history = append(that.history, value)
	that.result = strconv.Itoa(value)
	view := that.viewLocked()
	that.mu.Unlock()

	that.publisher.Publish(Event{Type: EventBallDrawn, Number: value, Audio: cue, View: view})
}

func (that *Presenter) OnStateChanged(running bool) {
	that.mu.Lock()
	if running {
		that.state = entity.StateRunning
		that.started = true
		that.result = TextRunning
	} else {
		that.state = entity.StatePaused
		// the last ball stays visible when the timer stopped because the pool ran out
		if len(that.history) < len(that.cells)-1 {
			that.result = TextPaused
		}
	}
	view := that.viewLocked()
	that.mu.Unlock()

	that.publisher.Publish(Event{Type: EventStateChanged, View: view})
}

// OnGameFinished locks the controls and shows the terminal text after finishDelay.
func (that *Presenter) OnGameFinished() {
	that.mu.Lock()
	that.state = entity.StateFinished
	game := that.game
	that.stopFinishTimerLocked()
	that.finishTimer = time.AfterFunc(that.finishDelay, func() {
		that.showFinished(game)
	})
	view := that.viewLocked()
	that.mu.Unlock()

	that.publisher.Publish(Event{Type: EventGameFinished, View: view})
}

func (that *Presenter) showFinished(game uint64) {
	that.mu.Lock()
	if that.game != game || that.state != entity.StateFinished {
		that.mu.Unlock()
		return
	}
	that.result = TextFinished
	that.finishTimer = nil
	view := that.viewLocked()
	that.mu.Unlock()

	that.publisher.Publish(Event{Type: EventGameEnded, View: view})
}

// Start begins the automatic draw at the selected speed. ctx bounds the
// lifetime of the timer, so it must outlive the request that asked for it.
func (that *Presenter) Start(ctx context.Context) error {
	that.mu.Lock()
	interval := time.Duration(that.speed) * time.Second
	that.mu.Unlock()

	if err := that.engine.Start(ctx, interval); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	return nil
}

func (that *Presenter) Pause() {
	that.engine.Pause()
}

// Draw takes a single ball by hand.
func (that *Presenter) Draw(ctx context.Context) (int, error) {
	ball, ok := that.engine.DrawOne(ctx)
	if !ok {
		return 0, apperror.ErrGameFinished
	}

	return ball, nil
}

// SetSpeed selects the automatic draw interval in seconds.
func (that *Presenter) SetSpeed(seconds int) error {
	if !validSpeed(seconds) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidSpeed, seconds)
	}

	if that.engine.State().IsRunning() {
		return apperror.ErrSpeedLocked
	}

	that.mu.Lock()
	that.speed = seconds
	view := that.viewLocked()
	that.mu.Unlock()

	that.publisher.Publish(Event{Type: EventView, View: view})

	return nil
}

// Restart starts a new game once the user confirmed it.
func (that *Presenter) Restart(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return apperror.ErrRestartNotConfirmed
	}

	if err := that.engine.Restart(ctx); err != nil {
		return fmt.Errorf("failed to restart game: %w", err)
	}

	that.logger.Info("game restarted")
	that.sync(EventGameRestarted, true)

	return nil
}

// Sync rebuilds the view from the engine, e.g. after a snapshot was restored.
func (that *Presenter) Sync() {
	that.sync(EventView, false)
}

func (that *Presenter) sync(eventType string, reset bool) {
	total := that.engine.Total()
	state := that.engine.State()
	history := that.engine.History()

	that.mu.Lock()
	that.game++
	that.stopFinishTimerLocked()

	that.state = state
	that.cells = make([]bool, total+1)
	that.history = history
	for _, ball := range history {
		if ball >= 1 && ball <= total {
			that.cells[ball] = true
		}
	}

	if reset {
		that.started = false
	} else {
		that.started = that.started || len(history) > 0
	}

	switch {
	case state.IsFinished():
		that.result = TextFinished
	case state.IsRunning():
		that.result = TextRunning
	case len(history) > 0:
		that.result = strconv.Itoa(history[len(history)-1])
	default:
		that.result = ""
	}

	view := that.viewLocked()
	that.mu.Unlock()

	that.publisher.Publish(Event{Type: eventType, View: view})
}

// View returns a copy of the current view.
func (that *Presenter) View() View {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.viewLocked()
}

func (that *Presenter) viewLocked() View {
	cells := make([]Cell, 0, len(that.cells))
	for number := 1; number < len(that.cells); number++ {
		cells = append(cells, Cell{Number: number, Drawn: that.cells[number]})
	}

	view := View{
		State:        that.state.String(),
		Cells:        cells,
		History:      append([]int{}, that.history...),
		Result:       that.result,
		SpeedSeconds: that.speed,
		Controls:     controlsFor(that.state, that.started),
	}

	if len(that.history) > 0 {
		view.Last = that.history[len(that.history)-1]
	}

	return view
}

func (that *Presenter) stopFinishTimerLocked() {
	if that.finishTimer != nil {
		that.finishTimer.Stop()
		that.finishTimer = nil
	}
}

func controlsFor(state entity.RunState, started bool) Controls {
	controls := Controls{StartLabel: LabelStart}
	if started {
		controls.StartLabel = LabelResume
	}

	switch state {
	case entity.StateRunning:
		controls.StartDisabled = true
		controls.SpeedLocked = true
	case entity.StateFinished:
		controls.StartDisabled = true
		controls.PauseDisabled = true
	default:
		controls.PauseDisabled = true
	}

	return controls
}

func validSpeed(seconds int) bool {
	return seconds >= MinSpeed && seconds <= MaxSpeed
}
