package bus

import (
	"testing"

	"github.com/DEVCOACH/internal/observable"
	"github.com/DEVCOACH/internal/tools"
)

func TestCheckToken_ConstantTimeMatchAndMismatch(t *testing.T) {
	b := New(observable.New(), tools.New(), "correct-horse-battery-staple")

	if !b.checkToken("correct-horse-battery-staple") {
		t.Fatal("expected matching token to pass")
	}
	if b.checkToken("wrong") {
		t.Fatal("expected mismatched token to fail")
	}
	if b.checkToken("") {
		t.Fatal("expected empty token to fail")
	}
}

func TestRegisterUnregister_TracksConnectionCount(t *testing.T) {
	b := New(observable.New(), tools.New(), "token")
	c1 := newConnection(b, nil)
	c2 := newConnection(b, nil)

	b.register(c1)
	b.register(c2)
	if got := b.ConnectionCount(); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	b.unregister(c1)
	if got := b.ConnectionCount(); got != 1 {
		t.Fatalf("expected 1 connection after unregister, got %d", got)
	}
}

func TestSlowSubscriber_DroppedWithoutAffectingOthers(t *testing.T) {
	obs := observable.New()
	b := New(obs, tools.New(), "token")

	slow := newConnection(b, nil)
	fast := newConnection(b, nil)
	b.register(slow)
	b.register(fast)
	slow.setState(stateAuthenticated)
	fast.setState(stateAuthenticated)

	slow.handleMessage(Message{Type: TypeSubscribe, Topic: observable.TopicContextStatus})
	fast.handleMessage(Message{Type: TypeSubscribe, Topic: observable.TopicContextStatus})

	// Flood the topic well past the slow connection's queue bound while
	// never draining slow.send; fast.send is drained as we go.
	for i := 0; i < sendQueueSize+16; i++ {
		obs.Publish(observable.TopicContextStatus, i)
		select {
		case <-fast.send:
		default:
		}
	}

	if b.ConnectionCount() != 1 {
		t.Fatalf("expected the slow connection to have been dropped, got %d connections", b.ConnectionCount())
	}
	if _, ok := b.connections[fast]; !ok {
		t.Fatal("expected the fast connection to remain registered")
	}
}
