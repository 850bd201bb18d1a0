package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"venue-manager/auth"
	"venue-manager/chat"
	"venue-manager/db"
	"venue-manager/models"
	"venue-manager/ocr"
	"venue-manager/reports"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	historyLimit    = 100
)

// Options are the HTTP layer settings taken from the configuration.
type Options struct {
	FrontendURL    string
	MaxUploadBytes int64
	OCRTimeout     time.Duration
	// PongWait is how long a WebSocket may stay silent before it is dropped.
	PongWait time.Duration
}

// API holds the dependencies shared by every route.
type API struct {
	store   Store
	images  ImageStore
	ocr     ocr.Recognizer
	chat    *chat.Service
	reports *reports.Builder
	tokens  *auth.TokenManager
	opts    Options
	logger  *zap.Logger

	upgrader websocket.Upgrader
}

func NewAPI(store Store, images ImageStore, recognizer ocr.Recognizer, chatService *chat.Service,
	tokens *auth.TokenManager, opts Options, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FrontendURL == "" {
		opts.FrontendURL = "*"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = 30 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 70 * time.Second
	}

	a := &API{
		store:   store,
		images:  images,
		ocr:     recognizer,
		chat:    chatService,
		reports: reports.NewBuilder(store),
		tokens:  tokens,
		opts:    opts,
		logger:  logger,
	}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkOrigin,
	}
	return a
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(a *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(a.logger))
	SetupAPIRoutes(router, a)
	return router
}

// SetupAPIRoutes registers all routes on router.
func SetupAPIRoutes(router *gin.Engine, a *API) {
	router.Use(cors(a.opts.FrontendURL))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Music Venue API", "health": "/health"})
	})
	router.GET("/health", a.health)
	router.GET("/ws", a.HandleWebSocket)

	api := router.Group("/api")
	api.POST("/auth/login", a.login)
	api.POST("/auth/register", a.register)

	authed := api.Group("", a.authRequired())
	manager := requireRole(models.RoleManager)
	owner := requireRole(models.RoleOwner)

	authed.GET("/auth/me", a.me)
	authed.GET("/users", manager, a.listUsers)
	authed.PUT("/users/:id", owner, a.updateUser)
	authed.DELETE("/users/:id", owner, a.deleteUser)

	authed.GET("/events", a.listEvents)
	authed.GET("/events/:id", a.getEvent)
	authed.POST("/events", manager, a.createEvent)
	authed.PUT("/events/:id", manager, a.updateEvent)
	authed.DELETE("/events/:id", manager, a.deleteEvent)

	authed.GET("/events/:id/staff", a.listStaff)
	authed.POST("/events/:id/staff", manager, a.createStaff)
	authed.GET("/staff/positions", a.staffPositions)
	authed.PUT("/staff/:id", manager, a.updateStaff)
	authed.DELETE("/staff/:id", manager, a.deleteStaff)

	authed.POST("/costs", a.createCost)
	authed.GET("/costs", a.listCosts)
	authed.GET("/costs/event/:id", a.listCosts)
	authed.PUT("/costs/:id", manager, a.updateCost)
	authed.DELETE("/costs/:id", manager, a.deleteCost)

	authed.POST("/revenue", a.createRevenue)
	authed.GET("/revenue", a.listRevenue)
	authed.GET("/revenue/event/:id", a.listRevenue)
	authed.PUT("/revenue/:id", manager, a.updateRevenue)
	authed.DELETE("/revenue/:id", manager, a.deleteRevenue)

	authed.POST("/receipts", a.uploadReceipt)
	authed.POST("/receipts/scan-text", a.scanText)
	authed.GET("/receipts", a.listReceipts)
	authed.GET("/receipts/:id", a.getReceipt)
	authed.GET("/receipts/:id/image", a.receiptImage)
	authed.PUT("/receipts/:id", a.updateReceipt)
	authed.POST("/receipts/:id/cost", a.bookReceipt)
	authed.DELETE("/receipts/:id", manager, a.deleteReceipt)

	authed.GET("/reports/event/:id", a.eventReport)
	authed.GET("/reports/event/:id/chart.png", a.eventChart)
	authed.GET("/reports/period", manager, a.periodReport)
	authed.GET("/stats/categories", a.categories)

	authed.GET("/chat/messages", a.publicMessages)
	authed.POST("/chat/messages", a.sendMessage)
	authed.POST("/chat/messages/:id/read", a.markRead)
	authed.GET("/chat/conversations/:id", a.conversation)
	authed.GET("/chat/unread", a.unread)
	authed.GET("/chat/online", a.online)
}

func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if origin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (a *API) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return a.opts.FrontendURL == "*" || origin == "" || origin == a.opts.FrontendURL
}

func (a *API) health(c *gin.Context) {
	if err := a.store.Ping(c.Request.Context()); err != nil {
		a.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"version":      "1.0.0",
		"database":     "connected",
		"online_users": len(a.chat.OnlineUsers()),
	})
}

// fail writes the error response matching err. what names the resource in
// not-found messages.
func (a *API) fail(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, db.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		a.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// paramID parses the :name path parameter. It writes a 400 and returns
// false when the value is not a positive integer.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}

// page reads skip and limit, clamping limit to maxPageSize.
func page(c *gin.Context) (skip, limit int, ok bool) {
	if skip, ok = queryInt(c, "skip", 0); !ok {
		return 0, 0, false
	}
	if limit, ok = queryInt(c, "limit", defaultPageSize); !ok {
		return 0, 0, false
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return skip, limit, true
}

// eventFilter reads the event id from the :id path parameter or the
// event_id query parameter. Both absent means no filter.
func eventFilter(c *gin.Context) (*int64, bool) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("event_id")
	}
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid event_id")
		return nil, false
	}
	return &id, true
}

// requireEvent checks that the optional event id refers to an existing
// event, writing the error response otherwise.
func (a *API) requireEvent(c *gin.Context, eventID *int64) bool {
	if eventID == nil {
		return true
	}
	if _, err := a.store.GetEvent(c.Request.Context(), *eventID); err != nil {
		a.fail(c, "Event", err)
		return false
	}
	return true
}
