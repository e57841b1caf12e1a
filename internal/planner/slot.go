package planner

// Slot is one of the three fixed daily meal categories.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
)

// Slots returns the fixed slot set in display order.
func Slots() []Slot {
	return []Slot{SlotBreakfast, SlotLunch, SlotDinner}
}

// ParseSlot validates a user-supplied slot name.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(s) {
	case SlotBreakfast, SlotLunch, SlotDinner:
		return Slot(s), true
	}
	return "", false
}
