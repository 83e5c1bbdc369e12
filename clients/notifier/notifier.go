package notifier

import (
	"strings"
	"time"
)

// Category is the visual class of an alert.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
	CategoryWarning Category = "warning"
	CategoryInfo    Category = "info"
)

// Alert is a system notification raised outside the dashboard.
type Alert struct {
	Title    string
	Message  string // Single line; newlines are flattened by SingleLine
	Icon     string
	Category Category

	Timestamp time.Time
}

// SingleLine replaces newlines with " | " so multi-line toast bodies fit a
// notification line.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", " | ")
}

// Retraction withdraws a delivered alert. Calling it more than once is
// harmless.
type Retraction func()

// NoRetraction is returned when nothing was delivered.
func NoRetraction() {}

// Notifier is the interface for delivering system notifications to a
// channel the user watches while the dashboard is not focused.
type Notifier interface {
	// Notify delivers the alert and returns a function that retracts it.
	Notify(alert Alert) Retraction

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	// Filter out nil notifiers
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// Notify sends the alert to all registered notifiers. The returned
// retraction withdraws it everywhere.
func (m *MultiNotifier) Notify(alert Alert) Retraction {
	var retractions []Retraction
	for _, n := range m.notifiers {
		if r := n.Notify(alert); r != nil {
			retractions = append(retractions, r)
		}
	}
	if len(retractions) == 0 {
		return NoRetraction
	}
	return func() {
		for _, r := range retractions {
			r()
		}
	}
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}
