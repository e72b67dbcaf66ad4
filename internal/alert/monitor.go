package alert

import (
	"fmt"
	"strconv"
	"time"
)

// State is the position of the latest price relative to a Rule.
type State int

const (
	Neutral State = iota
	BelowTriggered
	AboveTriggered
)

func (s State) String() string {
	switch s {
	case BelowTriggered:
		return "below"
	case AboveTriggered:
		return "above"
	default:
		return "neutral"
	}
}

// Event is a threshold crossing reported by a Monitor.
type Event struct {
	Symbol    string
	Kind      State // BelowTriggered or AboveTriggered
	Threshold float64
	Price     float64
	Time      time.Time
}

// Message is the text handed to notifiers.
func (e Event) Message() string {
	verb := "Rose above"
	if e.Kind == BelowTriggered {
		verb = "Dropped below"
	}
	return fmt.Sprintf("%s price alert: %s %s! Current: %s",
		e.Symbol, verb, formatPrice(e.Threshold), formatPrice(e.Price))
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Monitor tracks one Rule and reports each crossing once. After firing, the
// same bound stays silent until the price is seen strictly inside the band
// or crosses the opposite bound.
//
// A Monitor is not safe for concurrent use; it belongs to the render loop.
type Monitor struct {
	rule  Rule
	state State
	now   func() time.Time
}

func NewMonitor(rule Rule) *Monitor {
	return &Monitor{rule: rule, now: time.Now}
}

func (m *Monitor) Rule() Rule   { return m.rule }
func (m *Monitor) State() State { return m.state }

// Observe feeds the latest price. The lower bound is checked first, so it
// wins when a misconfigured rule has lower >= upper.
func (m *Monitor) Observe(price float64) (Event, bool) {
	switch {
	case price <= m.rule.Lower && m.state != BelowTriggered:
		m.state = BelowTriggered
		return m.event(BelowTriggered, m.rule.Lower, price), true
	case price >= m.rule.Upper && m.state != AboveTriggered:
		m.state = AboveTriggered
		return m.event(AboveTriggered, m.rule.Upper, price), true
	case price > m.rule.Lower && price < m.rule.Upper:
		m.state = Neutral
	}
	return Event{}, false
}

func (m *Monitor) event(kind State, threshold, price float64) Event {
	return Event{
		Symbol:    m.rule.Symbol,
		Kind:      kind,
		Threshold: threshold,
		Price:     price,
		Time:      m.now(),
	}
}
