package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/indexdb/internal/codec"
	"github.com/oxhq/indexdb/internal/schema"
)

type recordingSink struct {
	progress   [][2]int
	outOfDate  int
}

func (s *recordingSink) OnProgress(added, completed int) {
	s.progress = append(s.progress, [2]int{added, completed})
}

func (s *recordingSink) OnUnitOutOfDate(schema.UnitInfo, int64, codec.CanonicalPath, string, bool) {
	s.outOfDate++
}

func TestSinksFanOutToEveryRegisteredSink(t *testing.T) {
	var s Sinks
	a, b := &recordingSink{}, &recordingSink{}
	s.Add(a)
	s.Add(b)

	s.Progress(5, 2)
	assert.Equal(t, [][2]int{{5, 2}}, a.progress)
	assert.Equal(t, [][2]int{{5, 2}}, b.progress)

	s.UnitOutOfDate(schema.UnitInfo{}, 1, "", "", false)
	assert.Equal(t, 1, a.outOfDate)
	assert.Equal(t, 1, b.outOfDate)
}

func TestSinksRemoveStopsDelivery(t *testing.T) {
	var s Sinks
	a := &recordingSink{}
	s.Add(a)
	s.Remove(a)

	s.Progress(1, 1)
	assert.Empty(t, a.progress)
}
