package http

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SchemaEnsurer creates missing tables once the store is reachable.
type SchemaEnsurer interface {
	Ensure(ctx context.Context) error
}

// Options collects the dependencies of Handler.
type Options struct {
	DB           Pinger
	Schema       SchemaEnsurer
	Users        service.UserService
	Expenses     service.ExpenseService
	Exports      service.ExportService
	Tokens       *auth.TokenIssuer
	RequireToken bool
	Static       fs.FS
	Logger       *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	db           Pinger
	schema       SchemaEnsurer
	users        service.UserService
	expenses     service.ExpenseService
	exports      service.ExportService
	tokens       *auth.TokenIssuer
	requireToken bool
	static       fs.FS
	index        []byte
	logger       *logrus.Logger
}

func NewHandler(opts Options) (*Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	if opts.RequireToken && opts.Tokens == nil {
		return nil, errors.New("token enforcement needs a token issuer")
	}

	h := &Handler{
		db:           opts.DB,
		schema:       opts.Schema,
		users:        opts.Users,
		expenses:     opts.Expenses,
		exports:      opts.Exports,
		tokens:       opts.Tokens,
		requireToken: opts.RequireToken,
		static:       opts.Static,
		logger:       logger,
	}
	if opts.Static != nil {
		index, err := fs.ReadFile(opts.Static, "index.html")
		if err != nil {
			return nil, err
		}
		h.index = index
	}
	return h, nil
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	router.GET("/test", h.test)
	router.GET("/health", h.health)

	store := router.Group("", h.ensureSchema())
	store.POST("/register", h.register)
	store.POST("/login", h.login)

	api := store.Group("", h.identify())
	{
		api.POST("/add-expense", h.addExpense)
		api.GET("/expenses/:userId", h.listExpenses)
		api.GET("/expenses/summary/:userId", h.expenseSummary)
		api.DELETE("/expenses/:userId/:id", h.deleteExpense)
		api.POST("/expenses/export/:userId", h.exportExpenses)
		api.GET("/expenses/export/:userId", h.listExports)
	}

	if h.static != nil {
		router.StaticFS("/static", http.FS(h.static))
		router.GET("/", h.serveIndex)
	}
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet && h.index != nil {
			h.serveIndex(c)
			return
		}
		c.JSON(http.StatusNotFound, errorBody("Not found"))
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+requestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) serveIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.index)
}

func (h *Handler) test(c *gin.Context) {
	database := "Connected"
	if err := h.ping(c.Request.Context()); err != nil {
		database = "Disconnected"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Backend server is working!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
	})
}

func (h *Handler) health(c *gin.Context) {
	now := time.Now().UTC().Format(time.RFC3339)
	err := h.ping(c.Request.Context())
	if err == nil && h.schema != nil {
		err = h.schema.Ensure(c.Request.Context())
	}
	if err != nil {
		h.log(c).WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"database":  "error",
			"error":     err.Error(),
			"timestamp": now,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": now,
	})
}

func (h *Handler) ping(ctx context.Context) error {
	if h.db == nil {
		return errors.New("database not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.db.Ping(ctx)
}

func errorBody(message string) gin.H {
	return gin.H{"success": false, "message": message}
}

// respondError maps service errors onto status codes. Unexpected errors are
// logged and answered with fallback so store details never reach clients.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorBody(verr.Message))
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusBadRequest, errorBody("Username or email already exists"))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorBody("Invalid username or password"))
	case errors.Is(err, service.ErrExpenseNotFound):
		c.JSON(http.StatusNotFound, errorBody("Expense not found"))
	case errors.Is(err, service.ErrExportDisabled):
		c.JSON(http.StatusServiceUnavailable, errorBody("Export storage is not configured"))
	default:
		h.log(c).WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, errorBody(fallback))
	}
}

// pathID parses a positive integer path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(message))
		return 0, false
	}
	return id, true
}
