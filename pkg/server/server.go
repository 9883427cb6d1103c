// Package server exposes a range table over HTTP for a browser based
// visualizer. Rendering stays on the client: responses carry the intervals
// of every room and the ids that conflict, nothing about layout.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/henderiw/rangetable/pkg/rangetable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	AllowOrigins      []string
	MaxRequestsPerMin int
}

type Handler struct {
	table rangetable.RangeTable
	log   *zap.Logger
}

// NewRouter returns a gin engine with all routes registered.
func NewRouter(t rangetable.RangeTable, log *zap.Logger, cfg Config) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	h := &Handler{table: t, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(rateLimit(cfg.MaxRequestsPerMin, log))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes registers the range endpoints.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/ranges", h.SnapshotHandler)
		api.GET("/ranges/export", h.ExportHandler)
		api.POST("/ranges", h.AddHandler)
		api.POST("/ranges/import", h.ImportHandler)
		api.DELETE("/ranges/:id", h.RemoveHandler)
		api.DELETE("/ranges", h.ClearHandler)
		api.GET("/rooms/:roomId/conflicts", h.RoomConflictsHandler)
	}
}

// limiterIdle is how long a client limiter is kept without requests. A
// limiter refills completely within a minute, so dropping it after that is
// indistinguishable from keeping it.
const limiterIdle = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perMin    int
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(perMin int) *limiterStore {
	return &limiterStore{
		visitors: map[string]*visitor{},
		perMin:   perMin,
		now:      time.Now,
	}
}

func (s *limiterStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterIdle {
		s.sweep(now)
	}
	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep drops the limiters of clients idle for limiterIdle or longer.
func (s *limiterStore) sweep(now time.Time) {
	for ip, v := range s.visitors {
		if now.Sub(v.lastSeen) >= limiterIdle {
			delete(s.visitors, ip)
		}
	}
	s.lastSweep = now
}

func rateLimit(perMin int, log *zap.Logger) gin.HandlerFunc {
	if perMin < 1 {
		return func(c *gin.Context) { c.Next() }
	}
	store := newLimiterStore(perMin)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !store.get(ip).Allow() {
			log.Warn("rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
