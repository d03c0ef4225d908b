// Package metrics exports game and connection counters to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RejectRateLimit       = "rate_limit"
	RejectConnectionLimit = "connection_limit"
	RejectUpgrade         = "upgrade_failed"
)

// Recorder is an engine listener that also tracks websocket clients.
type Recorder struct {
	registry *prometheus.Registry

	ballsDrawn    prometheus.Counter
	gamesFinished prometheus.Counter
	timerRunning  prometheus.Gauge
	clients       prometheus.Gauge
	rejected      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	recorder := &Recorder{
		registry: prometheus.NewRegistry(),

		ballsDrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bingo_balls_drawn_total",
			Help: "Total number of balls drawn",
		}),
		gamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bingo_games_finished_total",
			Help: "Total number of games that drew every ball",
		}),
		timerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bingo_timer_running",
			Help: "1 while the automatic draw is running",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bingo_websocket_clients",
			Help: "Current number of connected websocket clients",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bingo_websocket_rejected_total",
			Help: "Total number of rejected websocket connections",
		}, []string{"reason"}),
	}

	recorder.registry.MustRegister(
		recorder.ballsDrawn,
		recorder.gamesFinished,
		recorder.timerRunning,
		recorder.clients,
		recorder.rejected,
		collectors.NewGoCollector(),
	)

	return recorder
}

func (that *Recorder) OnBallDrawn(_ int) {
	that.ballsDrawn.Inc()
}

func (that *Recorder) OnStateChanged(running bool) {
	if running {
		that.timerRunning.Set(1)
		return
	}

	that.timerRunning.Set(0)
}

func (that *Recorder) OnGameFinished() {
	that.gamesFinished.Inc()
}

func (that *Recorder) ClientConnected() {
	that.clients.Inc()
}

func (that *Recorder) ClientDisconnected() {
	that.clients.Dec()
}

func (that *Recorder) ConnectionRejected(reason string) {
	that.rejected.WithLabelValues(reason).Inc()
}

// Registry is exposed for tests and extra collectors.
func (that *Recorder) Registry() *prometheus.Registry {
	return that.registry
}

func (that *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(that.registry, promhttp.HandlerOpts{})
}
