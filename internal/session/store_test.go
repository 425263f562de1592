package session

import (
	"sync"
	"testing"
	"time"
)

// TestStoreSerializesSameSession checks that two turns for one session never
// overlap, even when they are submitted concurrently.
func TestStoreSerializesSameSession(t *testing.T) {
	s := NewStore()

	inside := false
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do("session-a", func(st *State) {
				if inside {
					t.Error("two turns of the same session overlapped")
				}
				inside = true
				time.Sleep(2 * time.Millisecond)
				inside = false
				st.City = "Paris"
			})
		}()
	}
	wg.Wait()

	if got := s.Peek("session-a").City; got != "Paris" {
		t.Fatalf("expected city to be set, got %q", got)
	}
}

// TestStoreSessionsIndependent checks that a long-running turn in one session
// does not block another session's turns.
func TestStoreSessionsIndependent(t *testing.T) {
	s := NewStore()

	aHeld := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		s.Do("session-a", func(st *State) {
			close(aHeld)
			<-release
		})
	}()

	<-aHeld

	go func() {
		s.Do("session-b", func(st *State) {
			st.City = "Oslo"
		})
		close(done)
	}()

	select {
	case <-done:
		// session-b progressed while session-a's turn was still in flight
	case <-time.After(2 * time.Second):
		t.Fatal("second session blocked behind the first session's turn")
	}

	close(release)
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}
