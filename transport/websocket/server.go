package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/bingo-backend/internal/metrics"
	"github.com/rocketscienceinc/bingo-backend/internal/presenter"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	defaultMaxConnections = 1000
	defaultRateLimit      = 10
	defaultRateBurst      = 20
)

var (
	errUnknownAction    = errors.New("unknown action")
	errMalformedMessage = errors.New("malformed message")
)

type gamePresenter interface {
	Start(ctx context.Context) error
	Pause()
	Draw(ctx context.Context) (int, error)
	SetSpeed(seconds int) error
	Restart(ctx context.Context, confirmed bool) error
	View() presenter.View
}

type connMetrics interface {
	ClientConnected()
	ClientDisconnected()
	ConnectionRejected(reason string)
}

type Option func(*Server)

// WithRateLimit limits new connections per remote IP.
func WithRateLimit(limit float64, burst int) Option {
	return func(that *Server) {
		that.rateLimit = rate.Limit(limit)
		that.rateBurst = burst
	}
}

func WithMaxConnections(limit int) Option {
	return func(that *Server) {
		if limit > 0 {
			that.connSemaphore = make(chan struct{}, limit)
		}
	}
}

type Server struct {
	logger    *slog.Logger
	presenter gamePresenter
	hub       *Hub
	metrics   connMetrics
	upgrader  websocket.Upgrader

	connSemaphore chan struct{}
	ipLimiters    sync.Map // map[string]*rate.Limiter
	rateLimit     rate.Limit
	rateBurst     int

	handlers map[string]func(ctx context.Context, client *Client, msg *Message) error
}

func New(logger *slog.Logger, presenter gamePresenter, hub *Hub, recorder connMetrics, opts ...Option) *Server {
	server := &Server{
		logger:    logger.With("component", "ws-server"),
		presenter: presenter,
		hub:       hub,
		metrics:   recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connSemaphore: make(chan struct{}, defaultMaxConnections),
		rateLimit:     defaultRateLimit,
		rateBurst:     defaultRateBurst,

		handlers: make(map[string]func(context.Context, *Client, *Message) error),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.handlers[actionState] = server.handleState
	server.handlers[actionStart] = server.handleStart
	server.handlers[actionPause] = server.handlePause
	server.handlers[actionDraw] = server.handleDraw
	server.handlers[actionSpeed] = server.handleSpeed
	server.handlers[actionRestart] = server.handleRestart

	return server
}

// Handler serves the websocket endpoint. ctx is the application context: it
// outlives single connections, so a game started from one keeps running.
func (that *Server) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		that.serveWebSocket(ctx, w, r)
	})
}

func (that *Server) serveWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWebSocket")

	ip := remoteIP(req)
	if !that.limiter(ip).Allow() {
		log.Warn("connection rate limit exceeded", "ip", ip)
		that.metrics.ConnectionRejected(metrics.RejectRateLimit)
		http.Error(writer, "too many requests", http.StatusTooManyRequests)
		return
	}

	select {
	case that.connSemaphore <- struct{}{}:
		defer func() { <-that.connSemaphore }()
	default:
		log.Warn("max connections reached")
		that.metrics.ConnectionRejected(metrics.RejectConnectionLimit)
		http.Error(writer, "server busy", http.StatusServiceUnavailable)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		that.metrics.ConnectionRejected(metrics.RejectUpgrade)
		return
	}

	client := NewClient(uuid.NewString())
	that.hub.Register(client)
	that.metrics.ClientConnected()

	log.Info("client connected", "client_id", client.id, "remote_addr", req.RemoteAddr)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		that.writePump(conn, client)
	}()

	go func() {
		defer wg.Done()
		that.readPump(ctx, conn, client)
	}()

	wg.Wait()

	that.metrics.ClientDisconnected()
	log.Info("client disconnected", "client_id", client.id)
}

// writePump is the only writer of conn.
func (that *Server) writePump(conn *websocket.Conn, client *Client) {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("failed to write message", "client_id", client.id, "error", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump dispatches client messages to the handlers until the connection closes.
func (that *Server) readPump(ctx context.Context, conn *websocket.Conn, client *Client) {
	log := that.logger.With("method", "readPump")

	defer func() {
		that.hub.Unregister(client)
		client.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, body, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("failed to read message", "client_id", client.id, "error", err)
			}

			return
		}

		var msg Message
		if err = json.Unmarshal(body, &msg); err != nil {
			log.Debug("failed to unmarshal message", "client_id", client.id, "error", err)
			that.sendError(client, "", errMalformedMessage)
			continue
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			that.sendError(client, msg.Action, errUnknownAction)
			continue
		}

		if err = handler(ctx, client, &msg); err != nil {
			log.Debug("action failed", "action", msg.Action, "error", err)
			that.sendError(client, msg.Action, err)
		}
	}
}

func (that *Server) send(client *Client, action string, payload any) {
	msg, err := newMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to encode reply", "action", action, "error", err)
		return
	}

	if !client.Send(msg) {
		that.logger.Warn("failed to queue reply", "client_id", client.id, "action", action)
	}
}

func (that *Server) sendError(client *Client, action string, err error) {
	that.send(client, action, ErrorPayload{Error: err.Error()})
}

func (that *Server) limiter(ip string) *rate.Limiter {
	if limiter, ok := that.ipLimiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}

	limiter, _ := that.ipLimiters.LoadOrStore(ip, rate.NewLimiter(that.rateLimit, that.rateBurst))

	return limiter.(*rate.Limiter)
}

func remoteIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}

	return host
}
