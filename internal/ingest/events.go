package ingest

import (
	"sync"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
)

// EventSink is the callback surface spec §9 replaces the source's virtual
// delegate methods with: on_progress and on_unit_out_of_date.
type EventSink interface {
	// OnProgress reports ingestion progress (spec §6's on_processing_progress).
	OnProgress(added, completed int)
	// OnUnitOutOfDate fires when a unit's stored mod-time no longer
	// matches the raw store, before it is re-ingested (spec §6's
	// on_unit_out_of_date). The UnitInfo value is only valid for the
	// duration of the callback.
	OnUnitOutOfDate(unit schema.UnitInfo, outOfDateModTime int64, triggerHintPath codec.CanonicalPath, triggerHintDescription string, synchronous bool)
}

// Sinks is a mutation-safe fan-out list of EventSink, matching spec §9's
// "multiple sinks are supported by an internal fan-out list, mutation-safe
// under a single mutex".
type Sinks struct {
	mu   sync.Mutex
	list []EventSink
}

// Add registers sink to receive future events.
func (s *Sinks) Add(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, sink)
}

// Remove unregisters sink, if present.
func (s *Sinks) Remove(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.list {
		if existing == sink {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return
		}
	}
}

func (s *Sinks) snapshot() []EventSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EventSink(nil), s.list...)
}

// Progress fans out OnProgress to every registered sink.
func (s *Sinks) Progress(added, completed int) {
	for _, sink := range s.snapshot() {
		sink.OnProgress(added, completed)
	}
}

// UnitOutOfDate fans out OnUnitOutOfDate to every registered sink.
func (s *Sinks) UnitOutOfDate(unit schema.UnitInfo, outOfDateModTime int64, path codec.CanonicalPath, description string, synchronous bool) {
	for _, sink := range s.snapshot() {
		sink.OnUnitOutOfDate(unit, outOfDateModTime, path, description, synchronous)
	}
}
