package session

import (
	"context"
	"sync"
)

// Hub is an in-memory broadcast point for Loopback peers: every Send from
// one peer is delivered to every other peer currently joined. It lets tests
// drive multiple peers without a real transport.
type Hub struct {
	mu    sync.Mutex
	peers map[int32]*Loopback
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{peers: make(map[int32]*Loopback)}
}

// NewPeer creates a Loopback session bound to this hub. Call Join to attach
// it.
func (h *Hub) NewPeer() *Loopback {
	return &Loopback{hub: h, events: make(chan Event, 256)}
}

// Loopback is an in-memory Session backed by a Hub.
type Loopback struct {
	hub    *Hub
	player int32
	events chan Event
	joined bool
}

func (l *Loopback) Join(ctx context.Context, playerNumber int32) error {
	l.hub.mu.Lock()
	defer l.hub.mu.Unlock()

	l.player = playerNumber
	for _, peer := range l.hub.peers {
		peer.events <- Event{Kind: EventJoined, PlayerNumber: playerNumber}
		l.events <- Event{Kind: EventJoined, PlayerNumber: peer.player}
	}
	l.hub.peers[playerNumber] = l
	l.joined = true
	return nil
}

func (l *Loopback) Leave() error {
	l.hub.mu.Lock()
	if l.joined {
		delete(l.hub.peers, l.player)
		for _, peer := range l.hub.peers {
			peer.events <- Event{Kind: EventLeft, PlayerNumber: l.player}
		}
		l.joined = false
	}
	l.hub.mu.Unlock()
	close(l.events)
	return nil
}

func (l *Loopback) Send(data []byte) error {
	l.hub.mu.Lock()
	defer l.hub.mu.Unlock()

	for player, peer := range l.hub.peers {
		if player == l.player {
			continue
		}
		cp := make([]byte, len(data))
		copy(cp, data)
		peer.events <- Event{Kind: EventData, PlayerNumber: l.player, Data: cp}
	}
	return nil
}

func (l *Loopback) Events() <-chan Event { return l.events }
