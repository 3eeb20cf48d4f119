package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quiz-round/internal/app"
	"quiz-round/internal/domain"
	"quiz-round/internal/metrics"
)

const defaultRefresh = 5 * time.Second

// LeaderboardHandler serves the ranked leaderboard as JSON and as a
// websocket feed that pushes a new snapshot whenever the ranking changes.
type LeaderboardHandler struct {
	reader   app.LeaderboardReader
	upgrader websocket.Upgrader
	refresh  time.Duration
	topN     int
	logger   zerolog.Logger
	metrics  *metrics.Recorder
}

// NewLeaderboardHandler builds a handler. topN <= 0 serves every entry.
func NewLeaderboardHandler(reader app.LeaderboardReader, refresh time.Duration, topN int, logger zerolog.Logger, rec *metrics.Recorder) *LeaderboardHandler {
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	return &LeaderboardHandler{
		reader: reader,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		refresh: refresh,
		topN:    topN,
		logger:  logger.With().Str("component", "leaderboard-feed").Logger(),
		metrics: rec,
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeJSON writes the current leaderboard snapshot.
func (h *LeaderboardHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	lb, err := h.snapshot(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("leaderboard fetch failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(errorPayload{Message: "leaderboard unavailable"})
		return
	}
	_ = json.NewEncoder(w).Encode(lb)
}

// ServeWS upgrades the request and streams leaderboard snapshots until the
// client disconnects. Incoming messages are discarded.
func (h *LeaderboardHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()
	defer h.metrics.Subscribed()()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	var (
		last []domain.LeaderboardEntry
		sent bool
	)
	push := func() error {
		lb, err := h.snapshot(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("leaderboard fetch failed")
			return conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "leaderboard unavailable"}})
		}
		if sent && sameEntries(last, lb.Entries) {
			return nil
		}
		sent, last = true, lb.Entries
		return conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: lb})
	}

	if err := push(); err != nil {
		return
	}
	ticker := time.NewTicker(h.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := push(); err != nil {
				h.logger.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}
}

func (h *LeaderboardHandler) snapshot(ctx context.Context) (domain.Leaderboard, error) {
	entries, err := h.reader.FetchRanked(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if h.topN > 0 && len(entries) > h.topN {
		entries = entries[:h.topN]
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: time.Now().UTC()}, nil
}

func sameEntries(a, b []domain.LeaderboardEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Username != b[i].Username || a[i].Score != b[i].Score || !a[i].QuizDate.Equal(b[i].QuizDate) {
			return false
		}
	}
	return true
}
