package metrics

import (
	"testing"

	"github.com/zoobzio/metricz"
)

func TestMetriczProvider_CounterAccumulates(t *testing.T) {
	p := NewMetriczProvider()
	c := p.Counter(TasksSpawned)
	c.Add(1)
	c.Add(4)

	got := p.Registry().Counter(metricz.Key(TasksSpawned)).Value()
	if got != 5 {
		t.Fatalf("Counter value = %v, want 5", got)
	}
}

func TestMetriczProvider_UpDownCounterTracksDelta(t *testing.T) {
	p := NewMetriczProvider()
	u := p.UpDownCounter(WorkersActive)
	u.Add(3)
	u.Add(-1)

	got := p.Registry().Gauge(metricz.Key(WorkersActive)).Value()
	if got != 2 {
		t.Fatalf("UpDownCounter value = %v, want 2", got)
	}
}

func TestMetriczProvider_HistogramRecordsLastValue(t *testing.T) {
	p := NewMetriczProvider()
	h := p.Histogram(TaskLatencyMs)
	h.Record(10)
	h.Record(25)

	got := p.Registry().Gauge(metricz.Key(TaskLatencyMs)).Value()
	if got != 25 {
		t.Fatalf("Histogram last value = %v, want 25", got)
	}
}
