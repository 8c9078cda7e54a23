// ABOUTME: WebSocket transport glue binding client connections to the Playback Coordinator
package room

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/syncjam/syncjam-go/internal/coordinator"
	"github.com/syncjam/syncjam-go/internal/protocol"
)

const (
	sendBufferSize = 100
	writeDeadline  = 10 * time.Second
	pingInterval   = 30 * time.Second
)

// Logger is the minimal logging surface Room needs.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// session is one connected client's transport state: the WebSocket
// connection and its outbound fan-out channel. Playback-relevant fields
// live in the registry instead.
type session struct {
	id       string
	conn     *websocket.Conn
	sendChan chan protocol.Message
	closed   sync.Once
}

func (s *session) close() {
	s.closed.Do(func() { close(s.sendChan) })
}

// Room upgrades HTTP connections to WebSocket, registers each as a
// coordinator session, and relays commands and events between them. It is
// the coordinator.Broadcaster implementation used in production.
type Room struct {
	upgrader    websocket.Upgrader
	coordinator *coordinator.Coordinator
	log         Logger

	mu       sync.RWMutex
	sessions map[string]*session

	wg sync.WaitGroup
}

// New creates a Room. Call SetCoordinator before serving any connections;
// the two are constructed separately because the coordinator needs a
// Broadcaster at construction time and the Room needs the coordinator to
// dispatch commands.
func New(opts ...Option) *Room {
	r := &Room{
		sessions: make(map[string]*session),
		log:      noopLogger{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(req *http.Request) bool {
				origin := req.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if origin == "http://localhost" || origin == "http://127.0.0.1" {
					return true
				}
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures a Room.
type Option func(*Room)

// WithLogger attaches a Logger.
func WithLogger(l Logger) Option {
	return func(r *Room) { r.log = l }
}

// SetCoordinator attaches the Playback Coordinator this room dispatches
// commands to.
func (r *Room) SetCoordinator(c *coordinator.Coordinator) {
	r.coordinator = c
}

// BroadcastAll fans msg out to every connected session, non-blocking per
// session so one slow consumer cannot stall the others. A full send buffer
// drops the message for that session only, logged.
func (r *Room) BroadcastAll(msg protocol.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, s := range r.sessions {
		r.enqueue(id, s, msg)
	}
}

// Send delivers msg to a single session, if still connected.
func (r *Room) Send(sessionID string, msg protocol.Message) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	r.enqueue(sessionID, s, msg)
}

func (r *Room) enqueue(sessionID string, s *session, msg protocol.Message) {
	select {
	case s.sendChan <- msg:
	default:
		r.log.Printf("session %s send buffer full, dropping %s", sessionID, msg.Type)
	}
}

// ServeHTTP upgrades the connection and runs its lifecycle until it closes.
func (r *Room) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Printf("websocket upgrade error: %v", err)
		return
	}
	r.handleConnection(conn)
}

func (r *Room) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	sessionID := uuid.New().String()
	s := &session{
		id:       sessionID,
		conn:     conn,
		sendChan: make(chan protocol.Message, sendBufferSize),
	}

	r.mu.Lock()
	r.sessions[sessionID] = s
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.writeLoop(s)
	}()

	r.coordinator.Connect(sessionID)

	defer func() {
		r.mu.Lock()
		delete(r.sessions, sessionID)
		r.mu.Unlock()
		s.close()
		r.coordinator.Disconnect(sessionID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				r.log.Printf("websocket error for session %s: %v", sessionID, err)
			}
			return
		}
		r.dispatch(sessionID, data)
	}
}

func (r *Room) writeLoop(s *session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				r.log.Printf("error marshaling message for session %s: %v", s.id, err)
				continue
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				r.log.Printf("error writing message for session %s: %v", s.id, err)
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// dispatch decodes an inbound frame and routes it to the coordinator.
func (r *Room) dispatch(sessionID string, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		r.log.Printf("error unmarshaling message from %s: %v", sessionID, err)
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		var p protocol.PingCommand
		if err := decodePayload(msg.Payload, &p); err != nil {
			r.log.Printf("bad ping payload from %s: %v", sessionID, err)
			return
		}
		r.coordinator.Ping(sessionID, p.ClientTimestamp)
	case protocol.TypePlay:
		r.coordinator.Play(sessionID)
	case protocol.TypePause:
		r.coordinator.Pause()
	case protocol.TypeSkip:
		r.coordinator.Skip()
	case protocol.TypePrevious:
		r.coordinator.Previous()
	case protocol.TypeJumpTo:
		var p protocol.JumpToCommand
		if err := decodePayload(msg.Payload, &p); err != nil {
			r.log.Printf("bad jumpTo payload from %s: %v", sessionID, err)
			return
		}
		r.coordinator.JumpTo(p.Index)
	case protocol.TypeSeek:
		var p protocol.SeekCommand
		if err := decodePayload(msg.Payload, &p); err != nil {
			r.log.Printf("bad seek payload from %s: %v", sessionID, err)
			return
		}
		r.coordinator.Seek(p.Seconds)
	case protocol.TypeAddToQueue:
		var p protocol.AddToQueueCommand
		if err := decodePayload(msg.Payload, &p); err != nil {
			r.log.Printf("bad addToQueue payload from %s: %v", sessionID, err)
			return
		}
		r.coordinator.AddToQueue(p.Track)
	case protocol.TypeRemoveFromQueue:
		var p protocol.RemoveFromQueueCommand
		if err := decodePayload(msg.Payload, &p); err != nil {
			r.log.Printf("bad removeFromQueue payload from %s: %v", sessionID, err)
			return
		}
		r.coordinator.RemoveFromQueue(p.Index)
	case protocol.TypeReorderQueue:
		var p protocol.ReorderQueueCommand
		if err := decodePayload(msg.Payload, &p); err != nil {
			r.log.Printf("bad reorderQueue payload from %s: %v", sessionID, err)
			return
		}
		r.coordinator.ReorderQueue(p.Queue, p.CurrentTrackIndex)
	case protocol.TypeReadyToPlay:
		var p protocol.ReadyToPlayCommand
		if err := decodePayload(msg.Payload, &p); err != nil {
			r.log.Printf("bad readyToPlay payload from %s: %v", sessionID, err)
			return
		}
		r.coordinator.ReadyToPlay(sessionID, p.Epoch)
	default:
		r.log.Printf("unknown message type from %s: %s", sessionID, msg.Type)
	}
}

// decodePayload round-trips an already-decoded interface{} payload into a
// concrete struct via json.Marshal/Unmarshal.
func decodePayload(payload interface{}, target interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}

// SessionCount reports the number of currently-connected sessions, used by
// the admin health endpoint.
func (r *Room) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close waits for every connection's writer goroutine to exit, used during
// graceful shutdown after the HTTP server has stopped accepting.
func (r *Room) Close() {
	r.wg.Wait()
}
