package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the quiz collectors. A nil *Recorder records nothing.
type Recorder struct {
	roundsStarted  prometheus.Counter
	roundsFinished *prometheus.CounterVec
	answers        *prometheus.CounterVec
	saveFailures   prometheus.Counter
	subscribers    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		roundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "rounds_started_total",
			Help:      "Rounds started, restarts included.",
		}),
		roundsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "rounds_finished_total",
			Help:      "Rounds finished, by reason.",
		}, []string{"reason"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "answers_total",
			Help:      "Accepted answer submissions.",
		}, []string{"correct"}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "result_save_failures_total",
			Help:      "Session results the store failed to persist.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quiz",
			Name:      "leaderboard_subscribers",
			Help:      "Open leaderboard feed connections.",
		}),
	}
	reg.MustRegister(r.roundsStarted, r.roundsFinished, r.answers, r.saveFailures, r.subscribers)
	return r
}

func (r *Recorder) RoundStarted() {
	if r == nil {
		return
	}
	r.roundsStarted.Inc()
}

func (r *Recorder) RoundFinished(reason string) {
	if r == nil {
		return
	}
	r.roundsFinished.WithLabelValues(reason).Inc()
}

func (r *Recorder) Answer(correct bool) {
	if r == nil {
		return
	}
	r.answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (r *Recorder) SaveFailed() {
	if r == nil {
		return
	}
	r.saveFailures.Inc()
}

// Subscribed tracks a feed connection; call the returned func on close.
func (r *Recorder) Subscribed() func() {
	if r == nil {
		return func() {}
	}
	r.subscribers.Inc()
	return r.subscribers.Dec
}
