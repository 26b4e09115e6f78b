package browse

// Navigator tracks the selected row of the visible item list
type Navigator struct {
	selected int
	count    int
}

// SetCount updates the number of visible items, clamping the selection
func (n *Navigator) SetCount(count int) {
	n.count = count
	n.clamp()
}

// Move shifts the selection by delta rows
func (n *Navigator) Move(delta int) {
	n.selected += delta
	n.clamp()
}

// Home selects the first item
func (n *Navigator) Home() {
	n.selected = 0
}

// Selected returns the selected index
func (n *Navigator) Selected() int {
	return n.selected
}

// DistanceFromEnd is how many items lie below the selection
func (n *Navigator) DistanceFromEnd() int {
	if n.count == 0 {
		return 0
	}
	return n.count - 1 - n.selected
}

func (n *Navigator) clamp() {
	if n.selected >= n.count {
		n.selected = n.count - 1
	}
	if n.selected < 0 {
		n.selected = 0
	}
}
