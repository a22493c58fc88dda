package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"InkBoard/internal/logging"
	"InkBoard/internal/state"
)

// Path is the websocket endpoint served by the host.
const Path = "/ws"

const sendBuffer = 256

// Peer is a client connected to the host.
type Peer struct {
	conn *websocket.Conn
	send chan []byte
}

func (p *Peer) addr() string { return p.conn.RemoteAddr().String() }

func (p *Peer) writeLoop() {
	for msg := range p.send {
		if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logging.Logger().Warn("peer write failed", "peer", p.addr(), "err", err)
			p.conn.Close()
			return
		}
	}
}

// Hub is run by the host. It relays every op a peer sends to the other
// peers and hands it to OnOp.
type Hub struct {
	mu       sync.RWMutex
	peers    map[*Peer]struct{}
	upgrader websocket.Upgrader

	// OnOp receives ops sent by peers. It is called from the peer's read
	// goroutine.
	OnOp func(op state.Op)
	// Snapshot returns the ops that rebuild the current board for a peer
	// that just joined.
	Snapshot func() []state.Op
}

// NewHub returns a hub with no peers.
func NewHub() *Hub {
	return &Hub{
		peers: make(map[*Peer]struct{}),
		upgrader: websocket.Upgrader{
			// Peers are other InkBoard apps on the local network, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Len returns the number of connected peers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// ServeHTTP upgrades the request and serves the peer until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn("websocket upgrade failed", "err", err)
		return
	}
	p := h.add(conn)
	go p.writeLoop()
	defer h.remove(p)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Logger().Info("peer disconnected", "peer", p.addr(), "err", err)
			}
			return
		}
		var op state.Op
		if err := json.Unmarshal(data, &op); err != nil {
			logging.Logger().Warn("bad op from peer", "peer", p.addr(), "err", err)
			continue
		}
		if h.OnOp != nil {
			h.OnOp(op)
		}
		h.relay(data, p)
	}
}

// add registers a peer for conn with the snapshot already queued, so no
// broadcast can slip in before it.
func (h *Hub) add(conn *websocket.Conn) *Peer {
	h.mu.Lock()
	defer h.mu.Unlock()
	var snap []state.Op
	if h.Snapshot != nil {
		snap = h.Snapshot()
	}
	p := &Peer{conn: conn, send: make(chan []byte, len(snap)+sendBuffer)}
	for _, op := range snap {
		data, err := json.Marshal(op)
		if err != nil {
			logging.Logger().Warn("snapshot op not encoded", "err", err)
			continue
		}
		p.send <- data
	}
	h.peers[p] = struct{}{}
	logging.Logger().Info("peer connected", "peer", p.addr(), "peers", len(h.peers))
	return p
}

func (h *Hub) remove(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; !ok {
		return
	}
	delete(h.peers, p)
	close(p.send)
	p.conn.Close()
}

// Broadcast sends op to every peer.
func (h *Hub) Broadcast(op state.Op) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("encode op: %w", err)
	}
	h.relay(data, nil)
	return nil
}

// relay queues data for every peer but exclude. Peers too slow to keep up
// are dropped.
func (h *Hub) relay(data []byte, exclude *Peer) {
	var slow []*Peer
	h.mu.RLock()
	for p := range h.peers {
		if p == exclude {
			continue
		}
		select {
		case p.send <- data:
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()
	for _, p := range slow {
		logging.Logger().Warn("dropping slow peer", "peer", p.addr())
		h.remove(p)
	}
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := make([]*Peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()
	for _, p := range peers {
		h.remove(p)
	}
}

// ListenAndServe serves the hub on port until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		h.Close()
		srv.Close()
	}()
	logging.Logger().Info("host listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on port %d: %w", port, err)
	}
	return nil
}
