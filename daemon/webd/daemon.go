package webd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/catpace/api"
	"github.com/rotblauer/catpace/metrics"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/session"
	"github.com/rotblauer/catpace/state"
	"github.com/rotblauer/catpace/stream"
)

// WebDaemon serves one Cat over HTTP: session control, fix and step
// ingestion, history and records, and live metrics over a websocket.
type WebDaemon struct {
	Config *params.WebDaemonConfig
	Cat    *api.Cat

	logger         *slog.Logger
	started        time.Time
	store          *state.Store
	melodyInstance *melody.Melody
	recent         *stream.RingBuffer[metrics.Live]
	server         *http.Server
}

// NewWebDaemon opens the activity store in the configured data dir.
// Options are passed to the Cat.
func NewWebDaemon(config *params.WebDaemonConfig, catConfig *api.CatConfig, opts ...api.Option) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	store, err := state.Open(config.DataDir, false)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger := slog.With("d", "web")
	return &WebDaemon{
		Config:  config,
		Cat:     api.NewCat(catConfig, store, append([]api.Option{api.WithLogger(logger)}, opts...)...),
		logger:  logger,
		started: time.Now(),
		store:   store,
		recent:  stream.NewRingBuffer[metrics.Live](config.MetricsBuffer),
	}, nil
}

// Run listens and serves until the context is canceled,
// returning any server error.
func (s *WebDaemon) Run(ctx context.Context) error {
	listener, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	router := s.NewRouter()
	s.server = &http.Server{Handler: router}

	go s.broadcastMetrics(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.melodyInstance.Close()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", listener.Addr().String())
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close ends any session in progress, paused or not, and closes the store.
func (s *WebDaemon) Close() error {
	if s.Cat.Tracker.Status() != session.Idle {
		if _, err := s.Cat.Stop(); err != nil {
			s.logger.Error("Failed to stop session on close", "error", err)
		}
	}
	return s.store.Close()
}

func (s *WebDaemon) NewRouter() *mux.Router {
	s.initMelody()

	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware, recoveryMiddleware)

	router.Path("/socat").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/session").HandlerFunc(s.handleGetSession).Methods(http.MethodGet)
	apiJSONRoutes.Path("/metrics").HandlerFunc(s.handleGetMetrics).Methods(http.MethodGet)
	apiJSONRoutes.Path("/gps").HandlerFunc(s.handleGetGPSQuality).Methods(http.MethodGet)
	apiJSONRoutes.Path("/records").HandlerFunc(s.handleGetRecords).Methods(http.MethodGet)
	apiJSONRoutes.Path("/activities").HandlerFunc(s.handleListActivities).Methods(http.MethodGet)
	apiJSONRoutes.Path("/activities/{id}").HandlerFunc(s.handleGetActivity).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiJSONRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(tokenAuthenticationMiddleware)

	authenticatedAPIRoutes.Path("/session/start").HandlerFunc(s.handleStart).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/session/pause").HandlerFunc(s.handlePause).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/session/resume").HandlerFunc(s.handleResume).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/session/stop").HandlerFunc(s.handleStop).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/fix").HandlerFunc(s.handlePostFixes).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/steps").HandlerFunc(s.handlePostSteps).Methods(http.MethodPost)
	authenticatedAPIRoutes.Path("/activities/{id}").HandlerFunc(s.handleDeleteActivity).Methods(http.MethodDelete)

	return router
}
