package suggest

// Selection tracks the caller's position within an ordered suggestion list.
// The first item is selected by default. Movement clamps at the boundaries:
// moving past the last or first index is a no-op, it does not cycle.
type Selection struct {
	items []string
	index int
}

// NewSelection wraps an ordered suggestion list. An empty list yields a
// selection with no current item.
func NewSelection(items []string) *Selection {
	copied := make([]string, len(items))
	copy(copied, items)
	return &Selection{items: copied}
}

// Items returns the wrapped list.
func (s *Selection) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Index returns the currently selected position.
func (s *Selection) Index() int {
	return s.index
}

// Current returns the selected item, or false if the list is empty.
func (s *Selection) Current() (string, bool) {
	if len(s.items) == 0 {
		return "", false
	}
	return s.items[s.index], true
}

// MoveDown advances the selection toward the end of the list.
func (s *Selection) MoveDown() {
	if s.index < len(s.items)-1 {
		s.index++
	}
}

// MoveUp moves the selection toward the start of the list.
func (s *Selection) MoveUp() {
	if s.index > 0 {
		s.index--
	}
}
