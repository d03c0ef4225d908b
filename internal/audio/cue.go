// Package audio maps drawn numbers to their spoken cue files.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

var ErrCueNotFound = errors.New("audio cue not found")

// Cues locates the cue for a number: {Dir}/{n}.{Ext} on disk and
// {URLPrefix}/{n}.{Ext} for the browser.
type Cues struct {
	Dir       string
	Ext       string
	URLPrefix string
}

func (that Cues) fileName(number int) string {
	return strconv.Itoa(number) + "." + that.Ext
}

func (that Cues) Path(number int) string {
	return filepath.Join(that.Dir, that.fileName(number))
}

func (that Cues) URL(number int) string {
	return path.Join("/", that.URLPrefix, that.fileName(number))
}

// Player announces a drawn number and returns the cue URL the browser should play.
type Player interface {
	Play(ctx context.Context, number int) (string, error)
}

type FilePlayer struct {
	cues Cues
}

func NewFilePlayer(cues Cues) *FilePlayer {
	return &FilePlayer{cues: cues}
}

// Play checks that the cue file exists. Playback itself happens in the
// browser, which may still refuse it until the user interacts with the page.
func (that *FilePlayer) Play(ctx context.Context, number int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cuePath := that.cues.Path(number)

	info, err := os.Stat(cuePath)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrCueNotFound, cuePath)
	}

	if err != nil {
		return "", fmt.Errorf("failed to stat audio cue: %w", err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrCueNotFound, cuePath)
	}

	return that.cues.URL(number), nil
}
