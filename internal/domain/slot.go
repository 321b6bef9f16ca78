package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSlot = errors.New("invalid time of day")

const minutesPerDay = 24 * 60

// Slot is a start offset within a day, in minutes since midnight.
type Slot int

// UnreadableSlot stands for submitted text that is not a time of day.
const UnreadableSlot Slot = -1

func NewSlot(hour, minute int) Slot {
	return Slot(hour*60 + minute)
}

// ParseSlot accepts "HH:MM" and "HH:MM:SS". Seconds must be zero since
// slots are minute-aligned.
func ParseSlot(s string) (Slot, error) {
	layout := "15:04"
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
	if t.Second() != 0 {
		return 0, fmt.Errorf("%w: %q is not minute aligned", ErrInvalidSlot, s)
	}

	return NewSlot(t.Hour(), t.Minute()), nil
}

func (s Slot) Valid() bool {
	return s >= 0 && s < minutesPerDay
}

func (s Slot) Add(d time.Duration) Slot {
	return s + Slot(d/time.Minute)
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", int(s)/60, int(s)%60)
}

func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(b []byte) error {
	parsed, err := ParseSlot(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// GenerateSlots partitions [start, end] into slots of the given duration
// separated by breakTime. A slot is emitted only if it ends at or before end.
func GenerateSlots(start, end Slot, duration, breakTime time.Duration) []Slot {
	step := duration + breakTime
	if duration <= 0 || step < time.Minute {
		return nil
	}

	var slots []Slot
	for t := start; t.Add(duration) <= end; t = t.Add(step) {
		slots = append(slots, t)
	}

	return slots
}

// ScheduleConfig describes the daily working window activities are placed in.
type ScheduleConfig struct {
	WindowStart   Slot
	WindowEnd     Slot
	SlotDuration  time.Duration
	BreakDuration time.Duration
}

var DefaultSchedule = ScheduleConfig{
	WindowStart:   NewSlot(9, 0),
	WindowEnd:     NewSlot(18, 0),
	SlotDuration:  90 * time.Minute,
	BreakDuration: 15 * time.Minute,
}

func (c ScheduleConfig) Slots() []Slot {
	return GenerateSlots(c.WindowStart, c.WindowEnd, c.SlotDuration, c.BreakDuration)
}

func (c ScheduleConfig) IsSlot(s Slot) bool {
	return containsSlot(c.Slots(), s)
}
