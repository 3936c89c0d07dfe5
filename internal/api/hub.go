package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/r5vtools/forge/internal/engine"
	"github.com/r5vtools/forge/internal/health"
	"github.com/r5vtools/forge/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 64
)

// hubClient is one connected editor view.
type hubClient struct {
	conn *websocket.Conn
	send chan engine.Event
}

// Hub fans engine events out to connected WebSocket clients. It implements
// the engine's Notifier; a slow client is dropped rather than allowed to
// stall the broadcast.
type Hub struct {
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	register   chan *hubClient
	unregister chan *hubClient
	broadcast  chan engine.Event

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewHub creates the event hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger.With().Str("component", "event_hub").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local editor shell only; the listener binds loopback.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		broadcast:  make(chan engine.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run drives the hub loop until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	clients := make(map[*hubClient]struct{})
	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
		for c := range clients {
			close(c.send)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			clients[c] = struct{}{}
			h.logger.Debug().Int("clients", len(clients)).Msg("event client connected")
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
			h.logger.Debug().Int("clients", len(clients)).Msg("event client disconnected")
		case evt := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- evt:
				default:
					delete(clients, c)
					close(c.send)
					h.logger.Warn().Msg("dropping slow event client")
				}
			}
		}
	}
}

// Notify implements engine.Notifier. Never blocks the engine: when the
// broadcast buffer is full the event is dropped, clients resynchronize via
// the REST surface.
func (h *Hub) Notify(evt engine.Event) {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	if !running {
		return
	}
	select {
	case h.broadcast <- evt:
	default:
		h.logger.Warn().Str("type", evt.Type).Msg("event buffer full, dropping event")
	}
}

// ServeWS upgrades an HTTP request to a WebSocket event stream.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &hubClient{conn: conn, send: make(chan engine.Event, clientSendSize)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *hubClient) {
	defer c.conn.Close()
	for evt := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(evt); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection; clients don't send anything meaningful,
// reading just surfaces disconnects.
func (h *Hub) readPump(c *hubClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// EventServer hosts the WebSocket event stream plus the probe and metrics
// endpoints that want a plain net/http mux.
type EventServer struct {
	srv    *http.Server
	hub    *Hub
	logger zerolog.Logger
}

// NewEventServer wires the hub, health checker, and metrics registry onto
// one listener.
func NewEventServer(addr string, hub *Hub, checker *health.Checker, m *metrics.Metrics, logger zerolog.Logger) *EventServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/events", hub.ServeWS)
	mux.HandleFunc("/healthz", health.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	return &EventServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // websocket writes manage their own deadlines
		},
		hub:    hub,
		logger: logger.With().Str("component", "event_server").Logger(),
	}
}

// Start starts the server. Blocks until stopped.
func (e *EventServer) Start() error {
	e.logger.Info().Str("addr", e.srv.Addr).Msg("event server starting")
	if err := e.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (e *EventServer) Shutdown(ctx context.Context) error {
	e.logger.Info().Msg("event server shutting down")
	return e.srv.Shutdown(ctx)
}
