package observable

import (
	"testing"
	"time"
)

func TestRegistry_PublishSubscribe(t *testing.T) {
	reg := New()
	sub := reg.Subscribe(TopicSessionStatus)
	defer sub.Close()

	reg.Publish(TopicSessionStatus, map[string]interface{}{"status": "active"})

	select {
	case update := <-sub.C:
		if update.Topic != TopicSessionStatus {
			t.Errorf("expected topic %s, got %s", TopicSessionStatus, update.Topic)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("did not receive update within timeout")
	}
}

func TestRegistry_LateSubscriberGetsCurrentValue(t *testing.T) {
	reg := New()
	reg.Publish(TopicContextStatus, 42)

	sub := reg.Subscribe(TopicContextStatus)
	defer sub.Close()

	select {
	case update := <-sub.C:
		if update.Value != 42 {
			t.Errorf("expected current value 42, got %v", update.Value)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("did not receive current value on subscribe")
	}
}

func TestRegistry_LastValueWins(t *testing.T) {
	reg := New()
	reg.Publish(TopicProjectStatus, "first")
	reg.Publish(TopicProjectStatus, "second")

	sub := reg.Subscribe(TopicProjectStatus)
	defer sub.Close()

	select {
	case update := <-sub.C:
		if update.Value != "second" {
			t.Errorf("expected last value 'second', got %v", update.Value)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("did not receive value")
	}
}

func TestRegistry_SlowSubscriberDroppedNotBlocked(t *testing.T) {
	reg := New()
	sub := reg.Subscribe(TopicToolExecution)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberQueueSize+10; i++ {
			reg.Publish(TopicToolExecution, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
