package metrics

import "github.com/zoobzio/metricz"

// MetriczProvider adapts github.com/zoobzio/metricz's Registry to Provider.
// Grounded on zoobzio-pipz's connectors (timeout.go, backoff.go, retry.go),
// which each keep a *metricz.Registry and pre-register every instrument name
// it will ever touch in the constructor before recording through it.
type MetriczProvider struct {
	reg *metricz.Registry
}

// NewMetriczProvider wraps a fresh metricz.Registry as a Provider.
func NewMetriczProvider() *MetriczProvider {
	return &MetriczProvider{reg: metricz.New()}
}

// Registry exposes the underlying registry for callers that want to read it
// back directly (dashboards, test assertions) rather than through Provider.
func (p *MetriczProvider) Registry() *metricz.Registry {
	return p.reg
}

func (p *MetriczProvider) Counter(name string, _ ...InstrumentOption) Counter {
	return metriczCounter{c: p.reg.Counter(metricz.Key(name))}
}

func (p *MetriczProvider) UpDownCounter(name string, _ ...InstrumentOption) UpDownCounter {
	return metriczGaugeUpDown{g: p.reg.Gauge(metricz.Key(name))}
}

func (p *MetriczProvider) Histogram(name string, _ ...InstrumentOption) Histogram {
	return metriczGaugeHistogram{g: p.reg.Gauge(metricz.Key(name))}
}

// metriczCounter adapts *metricz.Counter to the Counter interface. Counter's
// Add is only ever called with non-negative deltas in this codebase (tasks
// spawned, completed and failed), matching metricz's Inc/Add-only counter semantics.
type metriczCounter struct {
	c *metricz.Counter
}

func (m metriczCounter) Add(n int64) {
	if n == 1 {
		m.c.Inc()
		return
	}
	m.c.Add(float64(n))
}

// metriczGaugeUpDown adapts a *metricz.Gauge to UpDownCounter by reading the
// gauge's current value and setting it to that value plus n, since
// metricz.Gauge only exposes Set, not Add.
type metriczGaugeUpDown struct {
	g *metricz.Gauge
}

func (m metriczGaugeUpDown) Add(n int64) {
	m.g.Set(m.g.Value() + float64(n))
}

// metriczGaugeHistogram adapts a *metricz.Gauge to Histogram by recording the
// most recent measurement only; metricz carries no distribution type, so
// callers that need count/sum/min/max should reach for BasicProvider instead
// and use MetriczProvider purely for last-value gauges (queue depth, active
// worker count).
type metriczGaugeHistogram struct {
	g *metricz.Gauge
}

func (m metriczGaugeHistogram) Record(v float64) {
	m.g.Set(v)
}
