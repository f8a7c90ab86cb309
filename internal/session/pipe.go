package session

import "context"

// NewPipe returns two linked Sessions, modeled on the standard library's
// net.Pipe: whatever one side Sends arrives as an EventData on the other's
// Events channel. It is the shape a real client/server link actually has —
// one client talking to exactly one server endpoint — where Hub's flat
// broadcast-to-everyone room does not fit.
func NewPipe() (a, b Session) {
	pa := &pipe{events: make(chan Event, 256)}
	pb := &pipe{events: make(chan Event, 256)}
	pa.peer, pb.peer = pb, pa
	return pa, pb
}

type pipe struct {
	player int32
	peer   *pipe
	events chan Event
}

func (p *pipe) Join(ctx context.Context, playerNumber int32) error {
	p.player = playerNumber
	return nil
}

func (p *pipe) Leave() error {
	close(p.events)
	return nil
}

func (p *pipe) Send(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	p.peer.events <- Event{Kind: EventData, PlayerNumber: p.player, Data: cp}
	return nil
}

func (p *pipe) Events() <-chan Event { return p.events }
