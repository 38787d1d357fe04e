package digitizer

// HitCollection holds the hits of one event in processing order.
type HitCollection struct {
	hits []Hit
}

func NewHitCollection() *HitCollection {
	return &HitCollection{hits: make([]Hit, 0, 64)}
}

func (c *HitCollection) Append(hit Hit) {
	c.hits = append(c.hits, hit)
}

func (c *HitCollection) Len() int {
	return len(c.hits)
}

// Drain hands over all hits and leaves the collection empty. The returned
// slice is never touched by the collection again.
func (c *HitCollection) Drain() []Hit {
	hits := c.hits
	c.hits = nil
	if hits == nil {
		hits = []Hit{}
	}
	return hits
}
