package logger

import "sync"

type Event struct {
	Time  string         `json:"time"`
	Level string         `json:"level"`
	Msg   string         `json:"msg"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

const ringMax = 2000

var (
	ringMu   sync.Mutex
	ringLogs []Event
)

func addEvent(evt Event) {
	ringMu.Lock()
	defer ringMu.Unlock()
	if len(ringLogs) < ringMax {
		ringLogs = append(ringLogs, evt)
		return
	}
	copy(ringLogs, ringLogs[1:])
	ringLogs[len(ringLogs)-1] = evt
}

// Recent returns up to limit of the newest events, oldest first. A limit of
// zero or less returns everything kept.
func Recent(limit int) []Event {
	ringMu.Lock()
	defer ringMu.Unlock()
	if limit <= 0 || limit > len(ringLogs) {
		limit = len(ringLogs)
	}
	return append([]Event(nil), ringLogs[len(ringLogs)-limit:]...)
}
