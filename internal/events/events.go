// Package events collects notable simulation occurrences for logging,
// persistence, and the status API.
package events

// Event is a notable occurrence in the world.
type Event struct {
	Day         int32  `json:"day"`
	Description string `json:"description"`
	Category    string `json:"category"` // "founding", "war", "capture", "rebellion", "death", "birth", ...
}

// Log is an append-only event buffer trimmed by its owner.
type Log struct {
	Events []Event
}

// Add appends an event.
func (l *Log) Add(day int32, category, description string) {
	l.Events = append(l.Events, Event{Day: day, Category: category, Description: description})
}

// Trim drops the oldest events so at most keep remain.
func (l *Log) Trim(keep int) {
	if len(l.Events) > keep {
		l.Events = l.Events[len(l.Events)-keep:]
	}
}

// Recent returns up to n of the newest events.
func (l *Log) Recent(n int) []Event {
	if len(l.Events) <= n {
		return l.Events
	}
	return l.Events[len(l.Events)-n:]
}
