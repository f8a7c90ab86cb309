package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopbackDeliversJoinAndData(t *testing.T) {
	hub := NewHub()
	server := hub.NewPeer()
	client := hub.NewPeer()

	require.NoError(t, server.Join(context.Background(), 0))
	require.NoError(t, client.Join(context.Background(), 1))

	select {
	case ev := <-server.Events():
		require.Equal(t, EventJoined, ev.Kind)
		require.Equal(t, int32(1), ev.PlayerNumber)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for join event")
	}

	require.NoError(t, client.Send([]byte("hello")))
	select {
	case ev := <-server.Events():
		require.Equal(t, EventData, ev.Kind)
		require.Equal(t, int32(1), ev.PlayerNumber)
		require.Equal(t, []byte("hello"), ev.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for data event")
	}
}

func TestLoopbackSendNeverReachesSender(t *testing.T) {
	hub := NewHub()
	a := hub.NewPeer()
	require.NoError(t, a.Join(context.Background(), 0))
	require.NoError(t, a.Send([]byte("x")))

	select {
	case ev := <-a.Events():
		t.Fatalf("sender should not receive its own send, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoopbackLeaveClosesEventsAndNotifiesPeers(t *testing.T) {
	hub := NewHub()
	server := hub.NewPeer()
	client := hub.NewPeer()
	require.NoError(t, server.Join(context.Background(), 0))
	require.NoError(t, client.Join(context.Background(), 1))

	<-server.Events() // drain the join event for player 1

	require.NoError(t, client.Leave())

	select {
	case ev := <-server.Events():
		require.Equal(t, EventLeft, ev.Kind)
		require.Equal(t, int32(1), ev.PlayerNumber)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for leave event")
	}

	_, ok := <-client.Events()
	require.False(t, ok, "client's Events channel should be closed after Leave")
}
