package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/m-stoeckel/duui-uima/internal/logger"
	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/worker"
)

const (
	VersionHeader     = "X-DUUI-NER-Version"
	ProcessTimeHeader = "X-Process-Time"
	RequestIDHeader   = "X-Request-Id"
)

//go:embed assets
var assets embed.FS

// Processor annotates one request
type Processor interface {
	Process(ctx context.Context, req *model.Request) (*model.Response, error)
}

// Server exposes a Processor over the DUUI v1 HTTP interface
type Server struct {
	cfg                model.ServerConfig
	processor          Processor
	docs               model.Documentation
	typeSystem         []byte
	communicationLayer []byte
	limiter            *worker.Limiter
	router             *chi.Mux
	log                *logrus.Logger
}

// New builds the server and its router. The type system and communication
// layer are read once from the configured paths, falling back to the
// embedded defaults.
func New(cfg model.ServerConfig, processor Processor, docs model.Documentation) (*Server, error) {
	typeSystem, err := loadAsset(cfg.TypeSystemPath, "assets/typesystem.xml")
	if err != nil {
		return nil, fmt.Errorf("type system: %w", err)
	}
	communicationLayer, err := loadAsset(cfg.CommunicationLayerPath, "assets/communication_layer.lua")
	if err != nil {
		return nil, fmt.Errorf("communication layer: %w", err)
	}

	s := &Server{
		cfg:                cfg,
		processor:          processor,
		docs:               docs,
		typeSystem:         typeSystem,
		communicationLayer: communicationLayer,
		log:                logger.Get(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = worker.NewLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	s.router = s.setupRouter()

	return s, nil
}

func loadAsset(path, embedded string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return assets.ReadFile(embedded)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *Server) setupRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", s.log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(processTime)
	router.Use(sendVersion(s.docs.Version))
	router.Use(middleware.Heartbeat("/healthz"))

	router.Route("/v1", func(r chi.Router) {
		r.Get("/documentation", s.handleDocumentation)
		r.Get("/typesystem", s.handleTypeSystem)
		r.Get("/communication_layer", s.handleCommunicationLayer)
		r.With(s.rateLimit).Post("/process", s.handleProcess)
	})

	return router
}

// Serve listens on the configured address until ctx is cancelled
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr(), err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln and shuts down gracefully once ctx is done.
// In-flight requests get up to ShutdownTimeout to finish.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	if s.limiter != nil {
		go s.limiter.Run(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.WithFields(logrus.Fields{
		"addr":      ln.Addr().String(),
		"annotator": s.docs.AnnotatorName,
		"backend":   s.docs.Meta["backend"],
	}).Info("serving")

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
