package notifications

import "testing"

func TestLocalNotifier_OnlyNotifiesOnCritical(t *testing.T) {
	l := NewLocalNotifier()

	if l.ShouldNotify(Notification{Priority: PriorityHigh}) {
		t.Fatal("expected high priority to be filtered out")
	}
	if !l.ShouldNotify(Notification{Priority: PriorityCritical}) {
		t.Fatal("expected critical priority to notify")
	}
}

func TestLocalNotifier_SendUpdatesBannerState(t *testing.T) {
	l := NewLocalNotifier()

	if err := l.Send(Notification{Priority: PriorityCritical, Title: "alert", Body: "missing README"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := l.BannerState()
	if !state.Visible || state.Message != "missing README" || state.Type != BannerTypeCritical {
		t.Fatalf("unexpected banner state: %#v", state)
	}
}
