package metrics

import "sync"

// Point is one observed metric value.
type Point struct {
	Name  string
	Value float64
}

// Collector is an append-only, mutex-guarded metrics store. The simulator
// core hands it plain numeric values; all synchronization lives here, so the
// core components stay lock-free single-owner structures.
type Collector struct {
	mu     sync.Mutex
	points []Point
}

func NewCollector() *Collector {
	return &Collector{}
}

// Observe appends one value for name.
func (c *Collector) Observe(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, Point{Name: name, Value: value})
}

// ObserveAll appends every entry of a metric map, as produced by a block's
// Execute call.
func (c *Collector) ObserveAll(values map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, v := range values {
		c.points = append(c.points, Point{Name: name, Value: v})
	}
}

// Snapshot copies out every point in observation order.
func (c *Collector) Snapshot() []Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Point(nil), c.points...)
}

// Last returns the most recent value observed for name.
func (c *Collector) Last(name string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.points) - 1; i >= 0; i-- {
		if c.points[i].Name == name {
			return c.points[i].Value, true
		}
	}
	return 0, false
}

// Total sums every value observed for name.
func (c *Collector) Total(name string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sum float64
	for _, p := range c.points {
		if p.Name == name {
			sum += p.Value
		}
	}
	return sum
}
