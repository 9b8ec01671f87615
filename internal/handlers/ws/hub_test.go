package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/service"
)

// fakeConn records every frame written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	fail   bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteMessage(1, data)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) lastEvent(t *testing.T) service.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		t.Fatalf("no frames written")
	}
	var event service.Event
	if err := json.Unmarshal(c.frames[len(c.frames)-1], &event); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return event
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func onlineIDs(t *testing.T, event service.Event) []uint {
	t.Helper()
	if event.Type != service.EventOnlineUsers {
		t.Fatalf("event type = %q, want %q", event.Type, service.EventOnlineUsers)
	}
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var payload service.OnlineUsersPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return payload.UserIDs
}

func TestHubRegisterAndLookup(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Register(1, conn)

	if !hub.IsOnline(1) {
		t.Errorf("user 1 should be online")
	}
	if hub.IsOnline(2) {
		t.Errorf("user 2 should not be online")
	}
	got, ok := hub.Lookup(1)
	if !ok || got != Conn(conn) {
		t.Errorf("Lookup returned %v, %v", got, ok)
	}
	if hub.Count() != 1 {
		t.Errorf("Count = %d, want 1", hub.Count())
	}
}

func TestHubRegisterBroadcastsSnapshot(t *testing.T) {
	hub := NewHub()
	first := &fakeConn{}
	second := &fakeConn{}

	hub.Register(2, first)
	hub.Register(1, second)

	ids := onlineIDs(t, first.lastEvent(t))
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("snapshot = %v, want [1 2] ascending", ids)
	}
}

func TestHubLastConnectWins(t *testing.T) {
	hub := NewHub()
	stale := &fakeConn{}
	fresh := &fakeConn{}

	hub.Register(1, stale)
	hub.Register(1, fresh)

	if !stale.isClosed() {
		t.Errorf("previous connection was not closed")
	}
	got, ok := hub.Lookup(1)
	if !ok || got != Conn(fresh) {
		t.Errorf("hub kept the stale connection")
	}
	if hub.Count() != 1 {
		t.Errorf("Count = %d, want 1", hub.Count())
	}

	// The stale socket's deferred disconnect must not evict the fresh one.
	hub.Drop(1, stale)
	if !hub.IsOnline(1) {
		t.Errorf("stale drop evicted the fresh connection")
	}
	hub.Drop(1, fresh)
	if hub.IsOnline(1) {
		t.Errorf("fresh drop did not evict")
	}
}

func TestHubUnregisterIdempotent(t *testing.T) {
	hub := NewHub()
	hub.Register(1, &fakeConn{})

	hub.Unregister(1)
	if hub.IsOnline(1) {
		t.Errorf("user still online after unregister")
	}
	// Unknown and repeated unregisters are no-ops.
	hub.Unregister(1)
	hub.Unregister(42)
	if hub.Count() != 0 {
		t.Errorf("Count = %d, want 0", hub.Count())
	}
}

func TestHubBroadcastToUsersSkipsOfflineAndUnlisted(t *testing.T) {
	hub := NewHub()
	alice := &fakeConn{}
	bob := &fakeConn{}
	hub.Register(1, alice)
	hub.Register(2, bob)

	aliceBase := alice.frameCount()
	bobBase := bob.frameCount()

	// User 3 is offline; user 2 is not targeted.
	hub.BroadcastToUsers([]uint{1, 3}, service.Event{
		Type:    service.EventNewMessage,
		Payload: map[string]interface{}{"text": "hi"},
	})

	if alice.frameCount() != aliceBase+1 {
		t.Errorf("alice got %d new frames, want 1", alice.frameCount()-aliceBase)
	}
	if bob.frameCount() != bobBase {
		t.Errorf("bob got %d new frames, want 0", bob.frameCount()-bobBase)
	}
	if event := alice.lastEvent(t); event.Type != service.EventNewMessage {
		t.Errorf("event type = %q", event.Type)
	}
}

func TestHubListOnlineSorted(t *testing.T) {
	hub := NewHub()
	for _, id := range []uint{5, 1, 9, 3} {
		hub.Register(id, &fakeConn{})
	}

	ids := hub.ListOnline()
	if len(ids) != 4 {
		t.Fatalf("got %d ids, want 4", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not ascending: %v", ids)
		}
	}
}

func TestHubDropsDeadConnectionOnWriteError(t *testing.T) {
	hub := NewHub()
	dead := &fakeConn{fail: true}
	live := &fakeConn{}
	hub.Register(1, dead)
	hub.Register(2, live)

	hub.BroadcastToUsers([]uint{1, 2}, service.Event{Type: service.EventNewMessage})

	if hub.IsOnline(1) {
		t.Errorf("dead connection still registered")
	}
	if !hub.IsOnline(2) {
		t.Errorf("live connection was dropped")
	}
}
