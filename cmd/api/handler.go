package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"studio-admin-backend/internal/audit/delivery"
	authUsecase "studio-admin-backend/internal/auth/usecase"
	messageUsecase "studio-admin-backend/internal/message/usecase"
	projectUsecase "studio-admin-backend/internal/project/usecase"
	"studio-admin-backend/pkg/config"
	"studio-admin-backend/pkg/sse"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Dependencies are the use cases served over HTTP. DeviceUsecase and AuditReader
// are nil when no relational database is configured.
type Dependencies struct {
	Verifier       authUsecase.TokenVerifier
	ProjectUsecase projectUsecase.ProjectUsecase
	MessageUsecase messageUsecase.MessageUsecase
	DeviceUsecase  authUsecase.DeviceUsecase
	AuditReader    delivery.EntryReader
}

type Handler struct {
	deps       Dependencies
	sseManager *sse.Manager
	config     *config.Config
	logger     *zap.Logger
}

func NewHandler(deps Dependencies, sseManager *sse.Manager, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		deps:       deps,
		sseManager: sseManager,
		config:     cfg,
		logger:     logger.Named("http"),
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger), corsMiddleware(h.config.CORSOrigins))
	SetupRoutes(r, h.deps, h.sseManager)
	return r
}

// Start serves HTTP on addr and forwards live list changes to SSE clients until
// ctx is cancelled, then shuts the server down gracefully
func (h *Handler) Start(ctx context.Context, addr string) error {
	gin.SetMode(h.config.GinMode)

	go forwardProjectChanges(ctx, h.deps.ProjectUsecase, h.sseManager)
	go forwardMessageChanges(ctx, h.deps.MessageUsecase, h.sseManager)

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("server starting", zap.String("addr", addr))
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

	h.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	allow := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		allow[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allow[origin] || allow["*"]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
