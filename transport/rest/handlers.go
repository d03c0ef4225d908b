package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/presenter"
)

const maxBodySize = 1 << 12

var errBadRequestBody = errors.New("malformed request body")

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)

	State(w http.ResponseWriter, _ *http.Request)
	Start(w http.ResponseWriter, _ *http.Request)
	Pause(w http.ResponseWriter, _ *http.Request)
	Draw(w http.ResponseWriter, r *http.Request)
	Speed(w http.ResponseWriter, r *http.Request)
	Restart(w http.ResponseWriter, r *http.Request)
}

type gamePresenter interface {
	Start(ctx context.Context) error
	Pause()
	Draw(ctx context.Context) (int, error)
	SetSpeed(seconds int) error
	Restart(ctx context.Context, confirmed bool) error
	View() presenter.View
}

type SpeedRequest struct {
	Speed int `json:"speed"`
}

type RestartRequest struct {
	Confirmed bool `json:"confirmed"`
}

type DrawResponse struct {
	Number int            `json:"number"`
	View   presenter.View `json:"view"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	appCtx    context.Context
	logger    *slog.Logger
	presenter gamePresenter
}

// NewHandlers builds the control API. appCtx bounds the automatic draw, which
// has to keep running after the request that started it is done.
func NewHandlers(appCtx context.Context, logger *slog.Logger, game gamePresenter) Handlers {
	return &handlers{
		appCtx:    appCtx,
		logger:    logger.With("component", "rest"),
		presenter: game,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) State(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.presenter.View())
}

func (that *handlers) Start(w http.ResponseWriter, _ *http.Request) {
	if err := that.presenter.Start(that.appCtx); err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, that.presenter.View())
}

func (that *handlers) Pause(w http.ResponseWriter, _ *http.Request) {
	that.presenter.Pause()

	that.writeJSON(w, http.StatusOK, that.presenter.View())
}

func (that *handlers) Draw(w http.ResponseWriter, r *http.Request) {
	number, err := that.presenter.Draw(r.Context())
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, DrawResponse{Number: number, View: that.presenter.View()})
}

func (that *handlers) Speed(w http.ResponseWriter, r *http.Request) {
	var req SpeedRequest
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, err)
		return
	}

	if err := that.presenter.SetSpeed(req.Speed); err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, that.presenter.View())
}

func (that *handlers) Restart(w http.ResponseWriter, r *http.Request) {
	var req RestartRequest
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, err)
		return
	}

	if err := that.presenter.Restart(r.Context(), req.Confirmed); err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, that.presenter.View())
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %w", errBadRequestBody, err)
	}

	return nil
}

func (that *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if apperror.IsConflict(err) {
		status = http.StatusConflict
	}

	that.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	log := that.logger.With("method", "writeJSON")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("failed to write response", "error", err)
	}
}
