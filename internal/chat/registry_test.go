package chat

import (
	"testing"
	"time"

	"github.com/vyleayush/Talksy/internal/models"
)

func TestRegistry_Register_UsernameBoundaries(t *testing.T) {
	reg := NewRegistry(time.Minute)

	cases := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"two chars ok", "ab", false},
		{"single char rejected", "a", true},
		{"twenty chars ok", "abcdefghij0123456789", false},
		{"over twenty rejected", "21-characters-long-name!!", true},
		{"underscore and space ok", "cool_user 42", false},
		{"punctuation rejected", "bad!name", true},
		{"empty rejected", "", true},
	}
	for i, tc := range cases {
		_, err := reg.Register("conn-"+tc.name, tc.username, "")
		if tc.wantErr && err == nil {
			t.Errorf("case %d (%s): expected ValidationError, got nil", i, tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("case %d (%s): unexpected error: %v", i, tc.name, err)
		}
	}
}

func TestRegistry_SnapshotInsertionOrder(t *testing.T) {
	reg := NewRegistry(time.Minute)
	for _, id := range []string{"c1", "c2", "c3"} {
		if _, err := reg.Register(id, "user "+id, ""); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	snap := reg.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snap))
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if snap[i].ID != want {
			t.Errorf("snapshot[%d].ID = %s, want %s", i, snap[i].ID, want)
		}
	}
}

func TestRegistry_MarkOfflineIdempotent(t *testing.T) {
	reg := NewRegistry(time.Minute)
	fired := 0
	reg.OnDisconnect(func(string) { fired++ })

	if _, err := reg.Register("c1", "alice", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, changed := reg.MarkOffline("c1"); !changed {
		t.Fatal("first MarkOffline should report a transition")
	}
	if _, changed := reg.MarkOffline("c1"); changed {
		t.Fatal("second MarkOffline should be a no-op")
	}
	if fired != 1 {
		t.Errorf("disconnect listeners fired %d times, want 1", fired)
	}

	conn, ok := reg.Get("c1")
	if !ok {
		t.Fatal("connection should still be known while offline")
	}
	if conn.Status != models.StatusOffline {
		t.Errorf("status = %s, want offline", conn.Status)
	}
}

func TestRegistry_PurgeAfterGrace(t *testing.T) {
	reg := NewRegistry(10 * time.Millisecond)
	purged := make(chan string, 1)
	reg.OnPurged(func(id string) { purged <- id })

	if _, err := reg.Register("c1", "alice", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.MarkOffline("c1")

	select {
	case id := <-purged:
		if id != "c1" {
			t.Errorf("purged id = %s, want c1", id)
		}
	case <-time.After(time.Second):
		t.Fatal("purge did not fire within the grace period")
	}

	if reg.Known("c1") {
		t.Error("connection still known after purge")
	}
	if len(reg.Snapshot()) != 0 {
		t.Errorf("snapshot length = %d after purge, want 0", len(reg.Snapshot()))
	}
}

func TestRegistry_CloseStopsPurgeTimers(t *testing.T) {
	reg := NewRegistry(20 * time.Millisecond)
	purged := make(chan string, 1)
	reg.OnPurged(func(id string) { purged <- id })

	if _, err := reg.Register("c1", "alice", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg.MarkOffline("c1")
	reg.Close()

	select {
	case <-purged:
		t.Fatal("purge fired after Close")
	case <-time.After(100 * time.Millisecond):
	}
	if !reg.Known("c1") {
		t.Error("connection removed despite stopped timer")
	}
}
