package loopback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/teststand/pkg/radio"
)

func TestTransports(t *testing.T) {
	home, away := NewTransports()
	defer home.Close()
	ctx := context.Background()

	require.NoError(t, home.Send(ctx, []byte{1, 2, 3}))
	pkt, err := away.Receive(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt.Data)

	require.NoError(t, away.Send(ctx, []byte{4}))
	pkt, err = home.Receive(ctx, time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{4}, pkt.Data)

	_, err = home.Receive(ctx, 10*time.Millisecond)
	require.True(t, errors.Is(err, radio.ErrTimeout))
}

func TestPayloadLimit(t *testing.T) {
	home, _ := NewTransports()
	defer home.Close()
	err := home.Send(context.Background(), make([]byte, radio.MaxPayloadSize+1))
	require.True(t, errors.Is(err, radio.ErrPayloadTooLarge))
	require.NoError(t, home.Send(context.Background(), make([]byte, radio.MaxPayloadSize)))
}

func TestDrop(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	a.Drop = func(p []byte) bool { return p[0]%2 == 0 }
	for i := byte(0); i < 6; i++ {
		require.NoError(t, a.WritePacket([]byte{i}))
	}
	for _, expect := range []byte{1, 3, 5} {
		pkt, err := b.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, []byte{expect}, pkt)
	}
	require.Equal(t, 3, b.PacketsLost())
	require.Equal(t, 0, a.PacketsLost())
}

func TestAirBufferOverflowLoses(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	for i := 0; i < AirBuffer+5; i++ {
		require.NoError(t, a.WritePacket([]byte{byte(i)}))
	}
	for i := 0; i < AirBuffer; i++ {
		pkt, err := b.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, pkt)
	}
	require.Equal(t, 5, b.PacketsLost())
}

func TestLinkReportsAirLoss(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	a.Drop = func([]byte) bool { return true }
	link := radio.NewLink(b)
	require.NoError(t, a.WritePacket([]byte{1}))
	require.NoError(t, a.WritePacket([]byte{2}))
	lost, ok := radio.PacketsLost(link)
	require.True(t, ok)
	require.Equal(t, 2, lost)
}

func TestClose(t *testing.T) {
	home, away := NewTransports()
	require.NoError(t, home.Close())
	_, err := away.Receive(context.Background(), time.Second)
	require.True(t, errors.Is(err, radio.ErrClosed))
	require.True(t, errors.Is(home.Send(context.Background(), []byte{1}), radio.ErrClosed))
}

func TestLossy(t *testing.T) {
	drop := Lossy(0.5, 1)
	var dropped int
	for i := 0; i < 1000; i++ {
		if drop(nil) {
			dropped++
		}
	}
	require.InDelta(t, 500, dropped, 100)
	require.False(t, Lossy(0, 1)(nil))
}

func TestDial(t *testing.T) {
	a := Dial("bench")
	b := Dial("bench")
	defer a.Close()
	require.NoError(t, a.WritePacket([]byte{9}))
	pkt, err := b.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{9}, pkt)
	c := Dial("bench")
	require.NotSame(t, a, c)
	c.Close()
}
