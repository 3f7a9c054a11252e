package surface

import (
	"net"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/require"

	"github.com/nansu0425/RandomPitchPlayer/config"
	"github.com/nansu0425/RandomPitchPlayer/pitch"
)

func TestOSCMessage(t *testing.T) {
	t.Parallel()

	m := NewOSCMirror(config.OSCConfig{Host: "127.0.0.1", Port: 9000, Address: "/pitch"})
	msg := m.Message(pitch.F, pitch.F.Color())

	require.Equal(t, "/pitch", msg.Address)
	require.Equal(t, []interface{}{"F", int32(3), pitch.F.Hex()}, msg.Arguments)
}

func TestOSCMirrorSends(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan *osc.Message, 1)
	d := osc.NewStandardDispatcher()
	require.NoError(t, d.AddMsgHandler("/pitch", func(msg *osc.Message) {
		received <- msg
	}))
	server := &osc.Server{Dispatcher: d}
	go server.Serve(conn)

	port := conn.LocalAddr().(*net.UDPAddr).Port
	m := NewOSCMirror(config.OSCConfig{Host: "127.0.0.1", Port: port, Address: "/pitch"})
	m.Show(pitch.B, pitch.B.Color())
	require.NoError(t, m.Close())

	select {
	case msg := <-received:
		require.Equal(t, "B", msg.Arguments[0])
		require.Equal(t, int32(6), msg.Arguments[1])
	case <-time.After(2 * time.Second):
		t.Fatal("no OSC message received")
	}
}
