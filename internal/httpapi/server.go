// Package httpapi serves the liveness, status and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"baccarat-ledger/internal/observability"
	"baccarat-ledger/internal/orchestrator"
)

const banner = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Baccarat ledger</title></head>
<body><h1>🎲 Bot de résultats Baccarat</h1><p>Le bot est en ligne.</p></body></html>
`

// StatusSource provides the state reported by /status.
type StatusSource interface {
	Status() orchestrator.Snapshot
}

// Server is the HTTP surface of the bot.
type Server struct {
	source StatusSource
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Server.
func New(source StatusSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{source: source, logger: logger, now: time.Now}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(banner))
	})

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	return mux
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ResultStats is the ledger part of StatusResponse.
type ResultStats struct {
	Total      int     `json:"total"`
	PlayerWins int     `json:"player_wins"`
	BankerWins int     `json:"banker_wins"`
	PlayerRate float64 `json:"player_rate"`
	BankerRate float64 `json:"banker_rate"`
}

// PredictionStats is the catalog part of StatusResponse.
type PredictionStats struct {
	Total    int `json:"total"`
	Launched int `json:"launched"`
	Pending  int `json:"pending"`
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status            string          `json:"status"`
	Uptime            string          `json:"uptime"`
	ChannelConfigured bool            `json:"channel_configured"`
	ChannelID         int64           `json:"channel_id,omitempty"`
	DisplayChannelID  int64           `json:"display_channel_id,omitempty"`
	TransferEnabled   bool            `json:"transfer_enabled"`
	Stats             ResultStats     `json:"stats"`
	Predictions       PredictionStats `json:"predictions"`
	LastRollover      *time.Time      `json:"last_rollover,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
}

// handleStatus returns bot status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Status()
	now := s.now()

	resp := StatusResponse{
		Status:            "running",
		Uptime:            now.Sub(snap.StartedAt).Truncate(time.Second).String(),
		ChannelConfigured: snap.Settings.StatChannel != 0,
		ChannelID:         snap.Settings.StatChannel,
		DisplayChannelID:  snap.Settings.DisplayChannel,
		TransferEnabled:   snap.Settings.TransferEnabled,
		Stats: ResultStats{
			Total:      snap.Results.Total,
			PlayerWins: snap.Results.PlayerWins,
			BankerWins: snap.Results.BankerWins,
			PlayerRate: snap.Results.PlayerRate,
			BankerRate: snap.Results.BankerRate,
		},
		Predictions: PredictionStats{
			Total:    snap.Predictions.Total,
			Launched: snap.Predictions.Launched,
			Pending:  snap.Predictions.Pending,
		},
		Timestamp: now,
	}
	if !snap.LastRollover.IsZero() {
		last := snap.LastRollover
		resp.LastRollover = &last
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("status encode failed", zap.Error(err))
	}
}
