// ABOUTME: WebSocket transport for the reference client, speaking the room protocol
package clientcontrol

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/syncjam/syncjam-go/internal/protocol"
)

// Config holds transport configuration for connecting to a room.
type Config struct {
	ServerAddr string
	Path       string // defaults to "/"
}

// Transport is a WebSocket connection to a room server, routing inbound
// events onto typed channels and exposing one Send method per outbound
// command.
type Transport struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	RoomState        chan protocol.RoomState
	QueueUpdate      chan protocol.RoomState
	PlayerUpdate     chan protocol.PlayerUpdate
	PreparePlayback  chan protocol.PreparePlayback
	SynchronizedPlay chan protocol.SynchronizedPlay
	SyncTime         chan protocol.SyncTime
	Pong             chan protocol.Pong
	ForceReload      chan protocol.ForceReload

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewTransport creates a Transport with buffered inbound-event channels.
func NewTransport(config Config) *Transport {
	if config.Path == "" {
		config.Path = "/"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		config:           config,
		RoomState:        make(chan protocol.RoomState, 4),
		QueueUpdate:      make(chan protocol.RoomState, 4),
		PlayerUpdate:     make(chan protocol.PlayerUpdate, 4),
		PreparePlayback:  make(chan protocol.PreparePlayback, 4),
		SynchronizedPlay: make(chan protocol.SynchronizedPlay, 4),
		SyncTime:         make(chan protocol.SyncTime, 32),
		Pong:             make(chan protocol.Pong, 4),
		ForceReload:      make(chan protocol.ForceReload, 1),
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Connect dials the room server and starts the message-reading loop.
func (t *Transport) Connect() error {
	u := url.URL{Scheme: "ws", Host: t.config.ServerAddr, Path: t.config.Path}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.connected = true
	t.mu.Unlock()

	go t.readLoop()
	return nil
}

func (t *Transport) readLoop() {
	defer t.Close()

	for {
		select {
		case <-t.ctx.Done():
			return
		default:
		}

		_, data, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		t.route(data)
	}
}

func (t *Transport) route(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return
	}

	switch msg.Type {
	case protocol.TypeRoomState:
		var p protocol.RoomState
		if json.Unmarshal(payload, &p) == nil {
			deliver(t.ctx, t.RoomState, p)
		}
	case protocol.TypeQueueUpdate:
		var p protocol.RoomState
		if json.Unmarshal(payload, &p) == nil {
			deliver(t.ctx, t.QueueUpdate, p)
		}
	case protocol.TypePlayerUpdate:
		var p protocol.PlayerUpdate
		if json.Unmarshal(payload, &p) == nil {
			deliver(t.ctx, t.PlayerUpdate, p)
		}
	case protocol.TypePreparePlayback:
		var p protocol.PreparePlayback
		if json.Unmarshal(payload, &p) == nil {
			deliver(t.ctx, t.PreparePlayback, p)
		}
	case protocol.TypeSynchronizedPlay:
		var p protocol.SynchronizedPlay
		if json.Unmarshal(payload, &p) == nil {
			deliver(t.ctx, t.SynchronizedPlay, p)
		}
	case protocol.TypeSyncTime:
		var p protocol.SyncTime
		if json.Unmarshal(payload, &p) == nil {
			deliver(t.ctx, t.SyncTime, p)
		}
	case protocol.TypePong:
		var p protocol.Pong
		if json.Unmarshal(payload, &p) == nil {
			deliver(t.ctx, t.Pong, p)
		}
	case protocol.TypeForceReload:
		var p protocol.ForceReload
		if json.Unmarshal(payload, &p) == nil {
			deliver(t.ctx, t.ForceReload, p)
		}
	}
}

// deliver sends v on ch unless ctx is already done, so a closed transport
// never leaves the read loop stuck writing to a channel nobody drains.
func deliver[T any](ctx context.Context, ch chan T, v T) {
	select {
	case ch <- v:
	case <-ctx.Done():
	}
}

func (t *Transport) sendJSON(msgType string, payload interface{}) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.connected {
		return fmt.Errorf("not connected")
	}
	return t.conn.WriteJSON(protocol.Message{Type: msgType, Payload: payload})
}

func (t *Transport) SendPlay() error  { return t.sendJSON(protocol.TypePlay, nil) }
func (t *Transport) SendPause() error { return t.sendJSON(protocol.TypePause, nil) }
func (t *Transport) SendSkip() error  { return t.sendJSON(protocol.TypeSkip, nil) }
func (t *Transport) SendPrevious() error {
	return t.sendJSON(protocol.TypePrevious, nil)
}

func (t *Transport) SendJumpTo(index int) error {
	return t.sendJSON(protocol.TypeJumpTo, protocol.JumpToCommand{Index: index})
}

func (t *Transport) SendSeek(seconds float64) error {
	return t.sendJSON(protocol.TypeSeek, protocol.SeekCommand{Seconds: seconds})
}

func (t *Transport) SendAddToQueue(track protocol.Track) error {
	return t.sendJSON(protocol.TypeAddToQueue, protocol.AddToQueueCommand{Track: track})
}

func (t *Transport) SendRemoveFromQueue(index int) error {
	return t.sendJSON(protocol.TypeRemoveFromQueue, protocol.RemoveFromQueueCommand{Index: index})
}

func (t *Transport) SendReorderQueue(tracks []protocol.Track, currentIndex int) error {
	return t.sendJSON(protocol.TypeReorderQueue, protocol.ReorderQueueCommand{Queue: tracks, CurrentTrackIndex: currentIndex})
}

func (t *Transport) SendReadyToPlay(epoch int64) error {
	return t.sendJSON(protocol.TypeReadyToPlay, protocol.ReadyToPlayCommand{Epoch: epoch})
}

func (t *Transport) SendPing(clientTimestamp int64) error {
	return t.sendJSON(protocol.TypePing, protocol.PingCommand{ClientTimestamp: clientTimestamp})
}

// Close closes the connection and stops the read loop.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		t.connected = false
		t.cancel()
		t.conn.Close()
	}
}

// IsConnected reports whether the transport is currently connected.
func (t *Transport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

