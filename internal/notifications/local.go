package notifications

import "fmt"

// LocalNotifier surfaces critical-priority notifications to an operator
// at the keyboard: it flashes the terminal title and holds the latest
// banner state for a dashboard to poll, combining TerminalNotifier and
// BannerNotifier under one NotificationChannel.
type LocalNotifier struct {
	terminal *TerminalNotifier
	banner   *BannerNotifier
}

// NewLocalNotifier builds a LocalNotifier with fresh terminal and banner
// state.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{
		terminal: NewTerminalNotifier(),
		banner:   NewBannerNotifier(),
	}
}

func (l *LocalNotifier) Name() string { return "local" }

// ShouldNotify only fires for critical-priority notifications; anything
// lower is left to the bus's own tool:execution/agent:suggestions feed.
func (l *LocalNotifier) ShouldNotify(n Notification) bool {
	return n.Priority == PriorityCritical
}

func (l *LocalNotifier) Send(n Notification) error {
	var errs []error

	if l.terminal.IsSupported() {
		if err := l.terminal.FlashTerminal(n); err != nil {
			errs = append(errs, err)
		}
	}
	if err := l.banner.ShowNotification(n); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("local notifier: %v", errs)
	}
	return nil
}

// BannerState exposes the current banner for a caller that wants to
// surface it outside the NotificationChannel interface (e.g. a health
// or status endpoint).
func (l *LocalNotifier) BannerState() BannerState {
	return l.banner.GetState()
}
