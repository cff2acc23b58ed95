package ipc

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"
)

// pipeChannel returns a channel wired to the near end of a pipe, plus the
// far end standing in for the parent.
func pipeChannel(t *testing.T) (*SocketChannel, net.Conn) {
	t.Helper()
	near, far := net.Pipe()
	c := NewSocketChannel(near, nil)
	t.Cleanup(func() {
		c.Close()
		far.Close()
	})
	return c, far
}

func TestSocketChannelReceive(t *testing.T) {
	c, parent := pipeChannel(t)

	got := make(chan Envelope, 4)
	c.Start(func(env Envelope) { got <- env })

	if _, err := parent.Write([]byte(`{"id":"load","data":{"type":"accessory"}}` + "\n")); err != nil {
		t.Fatal(err)
	}

	select {
	case env := <-got:
		if env.ID != KindLoad {
			t.Errorf("ID = %q, want %q", env.ID, KindLoad)
		}
		if string(env.Data) != `{"type":"accessory"}` {
			t.Errorf("Data = %s", env.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
	}
}

func TestSocketChannelIgnoresUnknownKinds(t *testing.T) {
	c, parent := pipeChannel(t)

	got := make(chan Envelope, 4)
	c.Start(func(env Envelope) { got <- env })

	lines := []string{
		`{"id":"reboot"}`,
		`{"no_id":true}`,
		`not json at all`,
		`{"id":"start"}`,
	}
	for _, line := range lines {
		if _, err := parent.Write([]byte(line + "\n")); err != nil {
			t.Fatal(err)
		}
	}

	// Only the final, valid envelope should arrive.
	select {
	case env := <-got:
		if env.ID != KindStart {
			t.Errorf("ID = %q, want %q", env.ID, KindStart)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
	}

	select {
	case env := <-got:
		t.Errorf("unexpected extra envelope %q", env.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSocketChannelSend(t *testing.T) {
	c, parent := pipeChannel(t)

	done := make(chan Envelope, 1)
	go func() {
		r := bufio.NewReader(parent)
		line, err := r.ReadBytes('\n')
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return
		}
		done <- env
	}()

	c.Send(KindReady, nil)

	select {
	case env := <-done:
		if env.ID != KindReady {
			t.Errorf("ID = %q, want %q", env.ID, KindReady)
		}
		if len(env.Data) != 0 {
			t.Errorf("READY envelope should carry no payload, got %s", env.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sent envelope")
	}
}

func TestSocketChannelSendAfterDisconnectDrops(t *testing.T) {
	near, far := net.Pipe()
	c := NewSocketChannel(near, nil)
	c.Start(func(Envelope) {})

	far.Close()

	// Wait for the read loop to observe the disconnect.
	deadline := time.Now().Add(time.Second)
	for c.Connected() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Connected() {
		t.Fatal("channel still reports connected after peer close")
	}

	// Must not block or panic; the envelope is dropped.
	doneSend := make(chan struct{})
	go func() {
		c.Send(KindLoaded, nil)
		close(doneSend)
	}()
	select {
	case <-doneSend:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on disconnected channel")
	}
}

func TestSocketChannelCloseIdempotent(t *testing.T) {
	c, _ := pipeChannel(t)

	if err := c.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if c.Connected() {
		t.Error("Connected() = true after Close")
	}
}
