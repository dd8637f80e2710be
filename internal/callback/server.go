// Package callback serves the local endpoint the hosted payment page returns to.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/rider-client/internal/payments"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/health"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/middleware"
	"go.uber.org/zap"
)

// DefaultReturnTimeout bounds a return request, which waits for the ride to confirm.
const DefaultReturnTimeout = 45 * time.Second

// ReturnHandler consumes a payment return URL
type ReturnHandler interface {
	Handle(ctx context.Context, raw string) (*payments.ReturnResult, error)
}

// Announcer tells the rider how a returned payment ended
type Announcer interface {
	Announce(ctx context.Context, req payments.Request, outcome payments.Outcome)
	Fail(ctx context.Context, err error)
}

// Config configures the server
type Config struct {
	Port          string
	CORSOrigins   string
	ServiceName   string
	Version       string
	ReturnTimeout time.Duration
	Metrics       bool
	Sentry        bool
	Checks        map[string]health.Check
}

// Server is the local payment-return HTTP server.
type Server struct {
	cfg       Config
	returns   ReturnHandler
	announcer Announcer
	logger    *zap.Logger
	results   chan *payments.ReturnResult
	router    *gin.Engine
	srv       *http.Server
}

// NewServer builds the router. announcer may be nil.
func NewServer(returns ReturnHandler, announcer Announcer, cfg Config, log *zap.Logger) *Server {
	if cfg.ReturnTimeout <= 0 {
		cfg.ReturnTimeout = DefaultReturnTimeout
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "rider-callback"
	}
	s := &Server{
		cfg:       cfg,
		returns:   returns,
		announcer: announcer,
		logger:    logger.OrNop(log),
		results:   make(chan *payments.ReturnResult, 8),
	}
	s.router = s.buildRouter()
	return s
}

// Router exposes the handler for tests and embedding
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Results delivers every newly handled payment return.
func (s *Server) Results() <-chan *payments.ReturnResult {
	return s.results
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(s.logger))
	if s.cfg.Sentry {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(s.logger))
	router.Use(middleware.SecurityHeaders())
	if s.cfg.Metrics {
		router.Use(middleware.Metrics())
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(s.cfg.CORSOrigins)
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.CorrelationIDHeader, middleware.AltCorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheck(s.cfg.ServiceName, s.cfg.Version))
	checks := make(map[string]func(ctx context.Context) error, len(s.cfg.Checks))
	for name, check := range s.cfg.Checks {
		checks[name] = check
	}
	router.GET("/readyz", common.HealthCheckWithDeps(s.cfg.ServiceName, s.cfg.Version, checks))
	if s.cfg.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/return", timeout.New(
		timeout.WithTimeout(s.cfg.ReturnTimeout),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusGatewayTimeout, "payment confirmation is taking longer than expected")
		}),
	), s.handleReturn)

	return router
}

func (s *Server) handleReturn(c *gin.Context) {
	ctx := logger.ContextWithCorrelationID(c.Request.Context(), middleware.GetCorrelationID(c))
	res, err := s.returns.Handle(ctx, c.Request.URL.String())
	if err != nil {
		logger.WithContext(ctx).Warn("payment return failed", zap.Error(err))
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		if s.announcer != nil {
			s.announcer.Fail(ctx, err)
		}
		common.AppErrorResponse(c, payments.UserError(err))
		return
	}

	if res.Handled && !res.Duplicate {
		if s.announcer != nil {
			s.announcer.Announce(ctx, res.Request, res.Outcome)
		}
		select {
		case s.results <- res:
		default:
			s.logger.Warn("dropping payment return result, nobody is listening", zap.String("ride_id", res.RideID))
		}
	}

	if res.Handled && wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, res.Stripped)
		return
	}
	common.SuccessResponse(c, gin.H{
		"handled":   res.Handled,
		"duplicate": res.Duplicate,
		"ride_id":   res.RideID,
		"purpose":   res.Purpose,
		"outcome":   res.Outcome,
		"url":       res.Stripped,
	})
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.cfg.Port, err)
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("callback server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
