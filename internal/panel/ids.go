package panel

// MaxID returns the largest id among panels and the children of collapsed
// rows, or 0.
func MaxID(panels []*Panel) int {
	highest := 0
	for _, p := range panels {
		if p.ID > highest {
			highest = p.ID
		}
		if m := MaxID(p.Panels); m > highest {
			highest = m
		}
	}
	return highest
}

// MaxSpecID is MaxID over records.
func MaxSpecID(specs []Spec) int {
	highest := 0
	for _, s := range specs {
		if id := s.ID(); id > highest {
			highest = id
		}
		if m := MaxSpecID(s.Children()); m > highest {
			highest = m
		}
	}
	return highest
}

// IDGenerator hands out ids that are free in the tree it was seeded from.
type IDGenerator struct {
	next int
}

// NewIDGenerator returns a generator whose first id is one past the largest
// id of panels and specs.
func NewIDGenerator(panels []*Panel, specs ...[]Spec) *IDGenerator {
	highest := MaxID(panels)
	for _, list := range specs {
		if m := MaxSpecID(list); m > highest {
			highest = m
		}
	}
	return &IDGenerator{next: highest + 1}
}

// Next returns a fresh id.
func (g *IDGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// NextID returns the id after the largest one in panels.
func NextID(panels []*Panel) int {
	return MaxID(panels) + 1
}
