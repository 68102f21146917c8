package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vyleayush/Talksy/internal/models"
)

func newTestRelay(t *testing.T) (*Relay, models.Call) {
	t.Helper()
	reg := NewRegistry(time.Minute)
	for _, id := range []string{"caller", "target", "lurker"} {
		if _, err := reg.Register(id, "user "+id, ""); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	calls := NewCoordinator(reg)
	call, err := calls.Initiate("caller", "target", models.ModeVideo)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return NewRelay(calls), call
}

func TestRelay_ForwardBetweenParticipants(t *testing.T) {
	r, call := newTestRelay(t)
	payload := json.RawMessage(`{"sdp":"v=0..."}`)

	for _, kind := range []InboundType{InOffer, InAnswer, InICECandidate} {
		evt, ok := r.Forward(kind, call.Token, "caller", "target", payload)
		if !ok {
			t.Fatalf("%s between participants was dropped", kind)
		}
		if evt.Type != string(kind) {
			t.Errorf("forwarded type = %s, want %s", evt.Type, kind)
		}
		if evt.SenderID != "caller" {
			t.Errorf("senderId = %s, want caller", evt.SenderID)
		}
		if string(evt.Payload) != string(payload) {
			t.Errorf("payload altered in transit: %s", evt.Payload)
		}
	}
	// Opposite direction works too.
	if _, ok := r.Forward(InAnswer, call.Token, "target", "caller", payload); !ok {
		t.Error("answer from target to caller was dropped")
	}
}

func TestRelay_DropsInvalidTraffic(t *testing.T) {
	r, call := newTestRelay(t)
	payload := json.RawMessage(`{}`)

	cases := []struct {
		name               string
		kind               InboundType
		token, sender, dst string
	}{
		{"unknown token", InOffer, "no-such-token", "caller", "target"},
		{"sender not a participant", InOffer, call.Token, "lurker", "target"},
		{"destination not a participant", InOffer, call.Token, "caller", "lurker"},
		{"self-addressed", InOffer, call.Token, "caller", "caller"},
		{"non-signal kind", InSendMessage, call.Token, "caller", "target"},
	}
	for _, tc := range cases {
		if _, ok := r.Forward(tc.kind, tc.token, tc.sender, tc.dst, payload); ok {
			t.Errorf("%s: expected drop, got forward", tc.name)
		}
	}
}
