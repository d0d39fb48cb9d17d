package crawler

// LinkSet is an insertion-ordered set of absolute URLs. URLs are compared
// exactly; two spellings of the same resource are distinct entries.
type LinkSet struct {
	seen  map[string]struct{}
	order []string
}

// NewLinkSet creates a LinkSet with the given estimated capacity.
func NewLinkSet(estimatedCapacity int) *LinkSet {
	return &LinkSet{
		seen:  make(map[string]struct{}, estimatedCapacity),
		order: make([]string, 0, estimatedCapacity),
	}
}

// Add inserts link if absent and reports whether it was new.
func (s *LinkSet) Add(link string) bool {
	if _, ok := s.seen[link]; ok {
		return false
	}
	s.seen[link] = struct{}{}
	s.order = append(s.order, link)
	return true
}

// Has reports whether link was added before.
func (s *LinkSet) Has(link string) bool {
	_, ok := s.seen[link]
	return ok
}

// Len returns the number of unique links.
func (s *LinkSet) Len() int {
	return len(s.order)
}

// Links returns the links in first-seen order.
func (s *LinkSet) Links() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
