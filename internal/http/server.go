package http

import (
	"container/list"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"constrfin/internal/chart"
	"constrfin/internal/ports"
	appweb "constrfin/web"
)

// LRU cache with TTL and size-based eviction
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])

	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *lruCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries.
func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element

	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	return len(toRemove)
}

type Server struct {
	http.Server
	templates     *template.Template
	constructions ports.ConstructionStore
	positions     ports.PositionStore
	publisher     ports.SchedulePublisher
	rateLimiter   *rateLimiter

	// Rendered charts are expensive; keep recent ones around keyed by
	// user and construction, invalidated on every mutation.
	chartCache *lruCache[*chart.Artifact]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
// publisher may be nil when no message broker is configured.
func NewServer(addr string, cs ports.ConstructionStore, ps ports.PositionStore, pub ports.SchedulePublisher) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		constructions:    cs,
		positions:        ps,
		publisher:        pub,
		rateLimiter:      newRateLimiter(),
		chartCache:       newLRUCache[*chart.Artifact](50, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(s.withRequestLog)
	r.Use(s.withSecurityHeaders)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealthz)

	r.Route("/constructions/{userID}", func(r chi.Router) {
		r.Use(s.requireOwner)
		r.Get("/", s.handleConstructionList)
		r.Get("/add", s.handleConstructionAdd)
		r.Post("/add", s.handleConstructionAdd)
		r.Get("/{constructionID}/edit", s.handleConstructionEdit)
		r.Post("/{constructionID}/edit", s.handleConstructionEdit)
		r.Get("/{constructionID}/delete", s.handleConstructionDelete)
		r.Post("/{constructionID}/delete", s.handleConstructionDelete)
	})

	r.Route("/positions/{userID}/{constructionID}", func(r chi.Router) {
		r.Use(s.requireOwner)
		r.Get("/", s.handlePositionList)
		r.Get("/add", s.handlePositionAdd)
		r.Post("/add", s.handlePositionAdd)
		r.Get("/{positionID}/edit", s.handlePositionEdit)
		r.Post("/{positionID}/edit", s.handlePositionEdit)
		r.Get("/{positionID}/delete", s.handlePositionDelete)
		r.Post("/{positionID}/delete", s.handlePositionDelete)
	})

	r.Route("/schedule/{userID}/{constructionID}", func(r chi.Router) {
		r.Use(s.requireOwner)
		r.Get("/", s.handleSchedule)
	})

	s.Handler = r
	return s
}

// startCacheCleanup runs periodic cleanup for the chart cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.chartCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "chart_entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withRequestLog logs every request with a generated ID and its duration.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := generateRequestID()

		next.ServeHTTP(w, r)

		slog.Debug("Request handled",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
