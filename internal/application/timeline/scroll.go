package timeline

// ScrollController turns a stream of scroll positions into load-more triggers.
// It fires once when the distance from the end drops to the threshold and
// stays silent until the distance grows past the threshold again or Rearm is called.
type ScrollController struct {
	threshold int
	armed     bool
}

// NewScrollController creates an armed controller
func NewScrollController(threshold int) *ScrollController {
	return &ScrollController{threshold: threshold, armed: true}
}

// Observe reports whether distanceFromEnd crosses the threshold
func (s *ScrollController) Observe(distanceFromEnd int) bool {
	if distanceFromEnd > s.threshold {
		s.armed = true
		return false
	}
	if !s.armed {
		return false
	}
	s.armed = false
	return true
}

// Rearm allows the next observation inside the threshold to fire again
func (s *ScrollController) Rearm() {
	s.armed = true
}

// Armed reports whether the next crossing will fire
func (s *ScrollController) Armed() bool {
	return s.armed
}
