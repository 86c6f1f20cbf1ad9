package kds

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	mu       sync.Mutex
	messages [][]byte
	fail     bool
	closed   bool
}

func (c *recordingConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	if messageType != websocket.TextMessage {
		return errors.New("unexpected message type")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.messages...)
}

func (c *recordingConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// stalledConn blocks every write until it is closed.
type stalledConn struct {
	once    sync.Once
	unblock chan struct{}
}

func newStalledConn() *stalledConn {
	return &stalledConn{unblock: make(chan struct{})}
}

func (c *stalledConn) WriteMessage(int, []byte) error {
	<-c.unblock
	return errors.New("use of closed connection")
}

func (c *stalledConn) Close() error {
	c.once.Do(func() { close(c.unblock) })
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestBroadcastOrderCreated(t *testing.T) {
	hub := NewHub()
	admin := &recordingConn{}
	mine := &recordingConn{}
	other := &recordingConn{}
	hub.Register(admin, AllFranchises)
	hub.Register(mine, 1)
	hub.Register(other, 2)

	hub.BroadcastOrderCreated(models.Order{ID: 10, FranchiseID: 1, StoreID: 3})

	waitFor(t, func() bool { return len(admin.received()) == 1 && len(mine.received()) == 1 })
	assert.Empty(t, other.received())

	var msg struct {
		Event string       `json:"event"`
		Data  models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(mine.received()[0], &msg))
	assert.Equal(t, EventOrderCreated, msg.Event)
	assert.Equal(t, uint(10), msg.Data.ID)
}

func TestBroadcastDropsBrokenConnections(t *testing.T) {
	hub := NewHub()
	broken := &recordingConn{fail: true}
	healthy := &recordingConn{}
	hub.Register(broken, 1)
	hub.Register(healthy, 1)

	hub.BroadcastOrderCreated(models.Order{ID: 1, FranchiseID: 1})

	waitFor(t, broken.isClosed)
	waitFor(t, func() bool { return hub.Clients() == 1 })
	waitFor(t, func() bool { return len(healthy.received()) == 1 })
}

func TestBroadcastDoesNotWaitForStalledDisplay(t *testing.T) {
	hub := NewHub()
	stalled := newStalledConn()
	healthy := &recordingConn{}
	hub.Register(stalled, 1)
	hub.Register(healthy, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= sendBuffer+2; i++ {
			hub.BroadcastOrderCreated(models.Order{ID: uint(i), FranchiseID: 1})
			n := i
			if !assert.Eventually(t, func() bool { return len(healthy.received()) == n }, time.Second, 5*time.Millisecond) {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast blocked by a stalled display")
	}

	// the stalled display overflowed its queue and was dropped
	assert.Equal(t, 1, hub.Clients())
	assert.Len(t, healthy.received(), sendBuffer+2)
}

func TestUnregister(t *testing.T) {
	hub := NewHub()
	conn := &recordingConn{}
	hub.Register(conn, 1)

	hub.Unregister(conn)
	assert.True(t, conn.isClosed())
	assert.Zero(t, hub.Clients())

	hub.BroadcastOrderCreated(models.Order{ID: 1, FranchiseID: 1})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, conn.received())

	// second unregister is harmless
	hub.Unregister(conn)
}
