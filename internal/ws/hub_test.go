package ws

import (
	"encoding/json"
	"testing"

	"github.com/vyleayush/Talksy/internal/chat"
)

func newFakeClient(id string) *Client {
	return &Client{
		id:   id,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case b := <-c.send:
			out = append(out, b)
		default:
			return out
		}
	}
}

func TestHub_AttachDetach(t *testing.T) {
	hub := NewHub()
	c := newFakeClient("c1")

	hub.attach(c)
	if hub.Attached() != 1 {
		t.Errorf("Attached() = %d, want 1", hub.Attached())
	}
	hub.detach("c1")
	if hub.Attached() != 0 {
		t.Errorf("Attached() after detach = %d, want 0", hub.Attached())
	}
	select {
	case <-c.done:
	default:
		t.Error("detach did not signal the client's write pump")
	}
}

func TestHub_UnicastOnlyToTarget(t *testing.T) {
	hub := NewHub()
	c1 := newFakeClient("c1")
	c2 := newFakeClient("c2")
	hub.attach(c1)
	hub.attach(c2)

	hub.Unicast("c1", chat.ErrorEvent{Type: "error", Message: "just you"})

	if got := drain(c1); len(got) != 1 {
		t.Fatalf("target received %d frames, want 1", len(got))
	}
	if got := drain(c2); len(got) != 0 {
		t.Errorf("bystander received %d frames, want 0", len(got))
	}
}

func TestHub_UnicastToDetachedIsSilentlyDropped(t *testing.T) {
	hub := NewHub()
	// Target went away between lookup and delivery: inherent race, not an error.
	hub.Unicast("ghost", chat.ErrorEvent{Type: "error", Message: "nobody home"})
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := NewHub()
	clients := []*Client{newFakeClient("c1"), newFakeClient("c2"), newFakeClient("c3")}
	for _, c := range clients {
		hub.attach(c)
	}

	hub.BroadcastAll(chat.TypingEvent{Type: "user-typing", UserID: "c1", Username: "u", IsTyping: true})

	for _, c := range clients {
		got := drain(c)
		if len(got) != 1 {
			t.Errorf("client %s received %d frames, want 1", c.id, len(got))
			continue
		}
		var decoded struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(got[0], &decoded); err != nil || decoded.Type != "user-typing" {
			t.Errorf("client %s got frame %s (err %v)", c.id, got[0], err)
		}
	}
}

func TestHub_BroadcastExceptSkipsSender(t *testing.T) {
	hub := NewHub()
	c1 := newFakeClient("c1")
	c2 := newFakeClient("c2")
	hub.attach(c1)
	hub.attach(c2)

	hub.BroadcastExcept("c1", chat.UserJoinedEvent{Type: "user-joined", Username: "u"})

	if got := drain(c1); len(got) != 0 {
		t.Errorf("excluded client received %d frames, want 0", len(got))
	}
	if got := drain(c2); len(got) != 1 {
		t.Errorf("other client received %d frames, want 1", len(got))
	}
}

func TestHub_SlowConsumerDropsFrames(t *testing.T) {
	hub := NewHub()
	c := newFakeClient("c1")
	hub.attach(c)

	// Fill the send buffer; further deliveries must not block.
	for i := 0; i < cap(c.send)+10; i++ {
		hub.Unicast("c1", chat.ErrorEvent{Type: "error", Message: "flood"})
	}
	if got := drain(c); len(got) != cap(c.send) {
		t.Errorf("buffered frames = %d, want %d", len(got), cap(c.send))
	}
}
