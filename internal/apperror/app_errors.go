package apperror

import "errors"

var (
	ErrGameFinished        = errors.New("game is already finished")
	ErrGameRunning         = errors.New("game is running")
	ErrNotInitialized      = errors.New("game is not initialized")
	ErrInvalidTotal        = errors.New("total balls must be positive")
	ErrInvalidInterval     = errors.New("draw interval must be positive")
	ErrInvalidSpeed        = errors.New("speed must be between 1 and 10 seconds")
	ErrSpeedLocked         = errors.New("speed can't be changed while the game is running")
	ErrRestartNotConfirmed = errors.New("restart was not confirmed")
	ErrInvalidSnapshot     = errors.New("invalid snapshot")
)

// IsConflict reports whether err is caused by the current game state rather than by bad input.
func IsConflict(err error) bool {
	return errors.Is(err, ErrGameFinished) ||
		errors.Is(err, ErrGameRunning) ||
		errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrSpeedLocked)
}
