package domain

// Booking is one activity's hold on a slot for some event and day.
type Booking struct {
	ActivityID uint
	Start      Slot
}

// ResolveAvailable filters generated down to the slots not held by another
// activity. When editing is set, its activity never counts as a booking and
// its current slot is kept selectable, prepended if the filter dropped it.
func ResolveAvailable(generated []Slot, booked []Booking, editing *Booking) []Slot {
	taken := make(map[Slot]struct{}, len(booked))
	for _, b := range booked {
		if editing != nil && b.ActivityID == editing.ActivityID {
			continue
		}
		taken[b.Start] = struct{}{}
	}

	available := make([]Slot, 0, len(generated))
	for _, s := range generated {
		if _, ok := taken[s]; !ok {
			available = append(available, s)
		}
	}

	if editing == nil {
		return available
	}

	for _, s := range available {
		if s == editing.Start {
			return available
		}
	}

	return append([]Slot{editing.Start}, available...)
}

func containsSlot(slots []Slot, s Slot) bool {
	for _, slot := range slots {
		if slot == s {
			return true
		}
	}
	return false
}

// SlotAllowed reports whether s may be stored for an activity given the
// current bookings of its event and day.
func (c ScheduleConfig) SlotAllowed(s Slot, booked []Booking, editing *Booking) bool {
	return containsSlot(ResolveAvailable(c.Slots(), booked, editing), s)
}
