package notifications

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mockChannel struct {
	name    string
	filter  func(Notification) bool
	sendErr error
	sent    int32
	mu      sync.Mutex
	got     []Notification
}

func newMockChannel(name string, filter func(Notification) bool, sendErr error) *mockChannel {
	if filter == nil {
		filter = func(Notification) bool { return true }
	}
	return &mockChannel{name: name, filter: filter, sendErr: sendErr}
}

func (m *mockChannel) Name() string                        { return m.name }
func (m *mockChannel) ShouldNotify(n Notification) bool     { return m.filter(n) }
func (m *mockChannel) Send(n Notification) error {
	atomic.AddInt32(&m.sent, 1)
	m.mu.Lock()
	m.got = append(m.got, n)
	m.mu.Unlock()
	return m.sendErr
}

func (m *mockChannel) sentCount() int {
	return int(atomic.LoadInt32(&m.sent))
}

func testNotification() Notification {
	return Notification{ID: "n1", Kind: KindDiscrepancy, Priority: PriorityCritical, Title: "missing README"}
}

func TestRouter_RouteSendsToEveryMatchingChannel(t *testing.T) {
	a := newMockChannel("a", nil, nil)
	b := newMockChannel("b", func(Notification) bool { return false }, nil)
	r := NewRouter([]NotificationChannel{a, b})

	r.RouteWithWait(testNotification())

	if a.sentCount() != 1 {
		t.Fatalf("expected channel a to receive 1 notification, got %d", a.sentCount())
	}
	if b.sentCount() != 0 {
		t.Fatalf("expected channel b to be filtered out, got %d", b.sentCount())
	}
}

func TestRouter_SendErrorsDoNotStopOtherChannels(t *testing.T) {
	failing := newMockChannel("failing", nil, errors.New("webhook down"))
	ok := newMockChannel("ok", nil, nil)
	r := NewRouter([]NotificationChannel{failing, ok})

	r.RouteWithWait(testNotification())

	if failing.sentCount() != 1 || ok.sentCount() != 1 {
		t.Fatalf("expected both channels attempted, got failing=%d ok=%d", failing.sentCount(), ok.sentCount())
	}
}

func TestRouter_RouteIsAsync(t *testing.T) {
	slow := newMockChannel("slow", nil, nil)
	r := NewRouter([]NotificationChannel{slow})

	r.Route(testNotification())
	if slow.sentCount() != 0 {
		t.Fatalf("expected Route to return before the channel goroutine runs, got sentCount=%d", slow.sentCount())
	}

	deadline := time.Now().Add(time.Second)
	for slow.sentCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if slow.sentCount() != 1 {
		t.Fatal("expected the async route to eventually deliver the notification")
	}
}

func TestRouter_AddAndRemoveChannel(t *testing.T) {
	r := NewRouter(nil)
	r.AddChannel(newMockChannel("a", nil, nil))
	r.AddChannel(newMockChannel("b", nil, nil))

	if got := r.GetChannels(); len(got) != 2 {
		t.Fatalf("expected 2 channels, got %v", got)
	}

	r.RemoveChannel("a")
	got := r.GetChannels()
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected only channel b to remain, got %v", got)
	}
}
