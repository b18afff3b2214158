package out

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"camwatch/internal/modules/monitor/domain"
	"camwatch/internal/platform/logging"
)

const (
	writeWait = 10 * time.Second
	sendQueue = 16
)

const (
	EventProgress  = "progress"
	EventTerminal  = "terminal"
	EventAbandoned = "abandoned"
	EventHello     = "hello"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type abandonedPayload struct {
	JobID string `json:"jobId"`
}

type helloPayload struct {
	InstanceID string `json:"instanceId"`
}

// WebsocketSink broadcasts monitor events to every connected browser. A client
// that connects mid-job immediately receives the latest event. Each client has
// a bounded queue drained by its own writer; a client whose queue is full is
// dropped.
type WebsocketSink struct {
	logger      arbor.ILogger
	instanceID  string
	upgrader    websocket.Upgrader
	origins     map[string]bool
	mu          sync.Mutex
	clients     map[*wsClient]struct{}
	lastMessage []byte
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

type WebsocketOption func(*WebsocketSink)

// WithAllowedOrigins accepts browser origins other than the server's own host.
func WithAllowedOrigins(origins ...string) WebsocketOption {
	return func(h *WebsocketSink) {
		for _, o := range origins {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				h.origins[strings.ToLower(o)] = true
			}
		}
	}
}

func NewWebsocketSink(logger arbor.ILogger, opts ...WebsocketOption) *WebsocketSink {
	h := &WebsocketSink{
		logger:     logging.OrNop(logger),
		instanceID: uuid.NewString(),
		origins:    map[string]bool{},
		clients:    make(map[*wsClient]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits non-browser clients, same-host pages and the allow-list.
func (h *WebsocketSink) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.origins[strings.ToLower(strings.TrimRight(origin, "/"))] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (h *WebsocketSink) OnProgress(model domain.ProgressModel) {
	h.broadcast(WSMessage{Type: EventProgress, Payload: model})
}

func (h *WebsocketSink) OnTerminal(model domain.ProgressModel) {
	h.broadcast(WSMessage{Type: EventTerminal, Payload: model})
}

func (h *WebsocketSink) OnAbandoned(jobID string) {
	h.broadcast(WSMessage{Type: EventAbandoned, Payload: abandonedPayload{JobID: jobID}})
}

func (h *WebsocketSink) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("Failed to upgrade WebSocket connection")
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendQueue), done: make(chan struct{})}

	hello, _ := json.Marshal(WSMessage{Type: EventHello, Payload: helloPayload{InstanceID: h.instanceID}})
	h.mu.Lock()
	h.clients[c] = struct{}{}
	c.send <- hello
	if h.lastMessage != nil {
		c.send <- h.lastMessage
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", count).Msg("WebSocket client connected")
	go h.writeLoop(c)
	defer h.drop(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

func (h *WebsocketSink) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *WebsocketSink) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal monitor event")
		return
	}

	var slow []*wsClient
	h.mu.Lock()
	h.lastMessage = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn().Msg("WebSocket client is not keeping up, dropping it")
		h.drop(c)
	}
}

func (h *WebsocketSink) writeLoop(c *wsClient) {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn().Err(err).Msg("Failed to send monitor event to client")
				h.drop(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (h *WebsocketSink) drop(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	remaining := len(h.clients)
	h.mu.Unlock()
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
		h.logger.Debug().Int("clients", remaining).Msg("WebSocket client disconnected")
	})
}
