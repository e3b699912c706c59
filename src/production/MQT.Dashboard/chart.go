package dashboard

import "sync"

// Chart holds the monitor series. One Chart lives for the whole view lifetime and
// is updated in place on every refresh.
type Chart struct {
	mu       sync.RWMutex
	labels   []string
	data     []*float64
	revision int
}

// ChartData is a copy of the chart state for rendering
type ChartData struct {
	Labels   []string   `json:"labels"`
	Data     []*float64 `json:"data"`
	Revision int        `json:"revision"`
}

// Update replaces labels and data and bumps the revision
func (c *Chart) Update(labels []string, data []*float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = labels
	c.data = data
	c.revision++
}

// Reset empties the series, e.g. when the selection is cleared
func (c *Chart) Reset() {
	c.Update([]string{}, []*float64{})
}

// Data returns a copy of the current series
func (c *Chart) Data() ChartData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ChartData{
		Labels:   append([]string{}, c.labels...),
		Data:     append([]*float64{}, c.data...),
		Revision: c.revision,
	}
}
