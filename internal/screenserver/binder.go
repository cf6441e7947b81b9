package screenserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PageBinder is the capability to actually put a rendered document on a
// network port. The registry is agnostic about whether the binder really
// binds a socket; tests inject a fake.
type PageBinder interface {
	// Serve makes html available on port. Calling Serve for a port that is
	// already bound swaps the served document in place.
	Serve(port int, html string) error
	// Release shuts down the listener on port. Releasing an unbound port is
	// an error.
	Release(port int) error
}

// pageServer is one bound port: a tiny gin app serving GET / with the
// rendered document and GET /ping for liveness probes.
type pageServer struct {
	srv  *http.Server
	mu   sync.RWMutex
	html string
}

func (p *pageServer) page(c *gin.Context) {
	p.mu.RLock()
	body := p.html
	p.mu.RUnlock()
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
}

// HTTPBinder binds one http.Server per served screen port.
type HTTPBinder struct {
	mu      sync.Mutex
	servers map[int]*pageServer
}

var _ PageBinder = (*HTTPBinder)(nil)

func NewHTTPBinder() *HTTPBinder {
	return &HTTPBinder{servers: make(map[int]*pageServer)}
}

func (b *HTTPBinder) Serve(port int, html string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ps, ok := b.servers[port]; ok {
		ps.mu.Lock()
		ps.html = html
		ps.mu.Unlock()
		log.Debug().Int("port", port).Msg("swapped served page")
		return nil
	}

	ps := &pageServer{html: html}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/", ps.page)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// listen before returning so a busy port fails the caller, not a goroutine
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("bind port %d: %w", port, err)
	}

	ps.srv = &http.Server{Handler: r}
	go func() {
		if err := ps.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Int("port", port).Msg("screen page server terminated")
		}
	}()

	b.servers[port] = ps
	log.Info().Int("port", port).Msg("screen page server started")
	return nil
}

func (b *HTTPBinder) Release(port int) error {
	b.mu.Lock()
	ps, ok := b.servers[port]
	if ok {
		delete(b.servers, port)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("port %d is not bound", port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ps.srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Int("port", port).Msg("failed to shut down screen page server")
		return err
	}
	log.Info().Int("port", port).Msg("screen page server stopped")
	return nil
}

// Close releases every bound port; used on process shutdown.
func (b *HTTPBinder) Close() {
	b.mu.Lock()
	ports := make([]int, 0, len(b.servers))
	for port := range b.servers {
		ports = append(ports, port)
	}
	b.mu.Unlock()

	for _, port := range ports {
		_ = b.Release(port)
	}
}
