package term

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestForwardNeverDropsInput(t *testing.T) {
	tm := New()

	for i := 0; i < eventCap; i++ {
		tm.forward(keyMsg('x'))
	}

	// The channel is full: the next forward must block (backpressure), not
	// silently discard the keystroke.
	delivered := make(chan struct{})
	go func() {
		tm.forward(keyMsg('z'))
		close(delivered)
	}()
	select {
	case <-delivered:
		t.Fatalf("forward returned on a full channel; the event was dropped")
	case <-time.After(50 * time.Millisecond):
	}

	// Consuming one event releases the blocked send.
	<-tm.Events()
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatalf("forward still blocked after an event was consumed")
	}

	// Every queued event arrives, the overflow one last.
	got := 0
	var last tea.KeyMsg
	for {
		select {
		case m := <-tm.Events():
			last = m.(tea.KeyMsg)
			got++
			continue
		default:
		}
		break
	}
	if got != eventCap {
		t.Fatalf("received %d events, want %d", got, eventCap)
	}
	if last.String() != "z" {
		t.Fatalf("overflow event lost or reordered, last was %q", last.String())
	}
}

func TestQuitReleasesBlockedForward(t *testing.T) {
	tm := New()
	for i := 0; i < eventCap; i++ {
		tm.forward(keyMsg('x'))
	}

	released := make(chan struct{})
	go func() {
		tm.forward(keyMsg('z'))
		close(released)
	}()

	close(tm.quit)
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatalf("shutdown did not release the blocked forward")
	}
}
