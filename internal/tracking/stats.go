package tracking

import "sync"

// Counts are the delivery counters of one event type.
type Counts struct {
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Suppressed int64 `json:"suppressed"`
	Skipped    int64 `json:"skipped"`
}

// Stats holds in-process counters per site and event type.
type Stats struct {
	mu     sync.Mutex
	bySite map[string]map[string]*Counts
}

func NewStats() *Stats {
	return &Stats{bySite: make(map[string]map[string]*Counts)}
}

func (s *Stats) Record(site, eventType string, o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, ok := s.bySite[site]
	if !ok {
		events = make(map[string]*Counts)
		s.bySite[site] = events
	}
	c, ok := events[eventType]
	if !ok {
		c = &Counts{}
		events[eventType] = c
	}
	switch o {
	case Sent:
		c.Sent++
	case Failed:
		c.Failed++
	case Suppressed:
		c.Suppressed++
	case Skipped:
		c.Skipped++
	}
}

// Snapshot copies the counters of one site. Sites never see each other's counters.
func (s *Stats) Snapshot(site string) map[string]Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Counts, len(s.bySite[site]))
	for eventType, c := range s.bySite[site] {
		out[eventType] = *c
	}
	return out
}
