package serving

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ndau/simple-dao/commands"
	"github.com/ndau/simple-dao/metrics"
	"github.com/ndau/simple-dao/models"
	"github.com/ndau/simple-dao/tracking"
)

const (
	defaultPort = 8081

	CallerHeader   = "X-Caller-Address"
	TrackingHeader = "X-Tracking-Number"

	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP surface of the engine.
type Server struct {
	dispatcher *commands.Dispatcher
	recorder   *metrics.Recorder
	port       int
	router     *mux.Router

	// Optional: logging
	Log *zap.SugaredLogger
}

// NewServer - recorder may be nil, in which case /metrics is not served.
func NewServer(cfg *models.Config, dispatcher *commands.Dispatcher, recorder *metrics.Recorder, loggers ...*zap.SugaredLogger) *Server {
	// Attach an optional logger
	log := zap.NewNop().Sugar()
	if len(loggers) > 0 {
		log = loggers[0]
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	s := &Server{
		dispatcher: dispatcher,
		recorder:   recorder,
		port:       port,
		Log:        log,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.track)

	router.HandleFunc("/proposals", s.createProposal).Methods(http.MethodPost)
	router.HandleFunc("/proposals/active", s.activeProposals).Methods(http.MethodGet)
	router.HandleFunc("/proposals/{id:[0-9]+}", s.getProposal).Methods(http.MethodGet)
	router.HandleFunc("/proposals/{id:[0-9]+}/votes", s.vote).Methods(http.MethodPost)
	router.HandleFunc("/distributions", s.distribute).Methods(http.MethodPost)
	router.HandleFunc("/members", s.members).Methods(http.MethodGet)
	router.HandleFunc("/members/{address}", s.member).Methods(http.MethodGet)
	router.HandleFunc("/supply", s.supply).Methods(http.MethodGet)
	router.HandleFunc("/height", s.height).Methods(http.MethodGet)
	if s.recorder != nil {
		router.Handle("/metrics", s.recorder.Handler()).Methods(http.MethodGet)
	}
	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.Log.Errorf("Failed shutting down the HTTP server: %v", err)
		}
	}()

	s.Log.Infof("HTTP server is listening on port %d", s.port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.Log.Errorf("Failed to listening on the port %d: %v", s.port, err)
		return err
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// track gives every request a tracking number, logs it and records it.
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trackingNumber := r.Header.Get(TrackingHeader)
		if trackingNumber == "" {
			trackingNumber = uuid.New().String()
		}
		w.Header().Set(TrackingHeader, trackingNumber)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(tracking.With(r.Context(), trackingNumber)))

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		s.Log.Infof("%s | %s %s -> %d", trackingNumber, r.Method, r.URL.Path, sw.status)
		if s.recorder != nil {
			s.recorder.ObserveRequest(endpoint, r.Method, sw.status, time.Since(start))
		}
	})
}
