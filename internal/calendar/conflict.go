// Package calendar implements agent schedule conflict detection: buffered
// interval overlap, availability search within business hours, and event
// time validation. All functions are pure computations over caller-supplied
// event snapshots.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/models"
)

const (
	// DefaultBufferMinutes is the padding applied to both sides of every
	// interval before overlap testing. Two events less than this far apart
	// conflict even if their raw intervals don't touch.
	DefaultBufferMinutes = 30

	// MinEventMinutes and MaxEventMinutes bound the duration of a single
	// calendar event.
	MinEventMinutes = 30
	MaxEventMinutes = 480

	// DefaultDayStart/DefaultDayEnd are the business hours used for
	// availability search.
	DefaultDayStart = "08:00"
	DefaultDayEnd   = "20:00"
)

// Event time validation failures. Handlers map these to distinct
// user-facing messages.
var (
	ErrEndNotAfterStart = errors.New("end time must be after start time")
	ErrDurationTooShort = errors.New("event duration must be at least 30 minutes")
	ErrDurationTooLong  = errors.New("event duration cannot exceed 8 hours")
)

// ParseTime converts an "HH:MM" time of day to minutes since midnight.
func ParseTime(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatMinutes renders minutes since midnight back as "HH:MM".
func FormatMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// DateKey normalizes a timestamp to its calendar day, discarding
// time-of-day, so events on the same day compare equal regardless of the
// stored clock time.
func DateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RangesOverlap reports whether two intervals come within buffer minutes
// of each other. The check is symmetric, and strict on both ends: an
// interval starting exactly buffer minutes after the other ends does not
// conflict. With events 10:00-11:00 and buffer 30 the conflict window is
// [09:30, 11:30).
func RangesOverlap(start1, end1, start2, end2, buffer int) bool {
	return start1 < end2+buffer && end1 > start2-buffer
}

// ValidateEventTime checks that an event's start/end pair is well-formed:
// end after start and duration within [MinEventMinutes, MaxEventMinutes].
func ValidateEventTime(startTime, endTime string) error {
	start, err := ParseTime(startTime)
	if err != nil {
		return err
	}
	end, err := ParseTime(endTime)
	if err != nil {
		return err
	}
	if end <= start {
		return ErrEndNotAfterStart
	}
	duration := end - start
	if duration < MinEventMinutes {
		return ErrDurationTooShort
	}
	if duration > MaxEventMinutes {
		return ErrDurationTooLong
	}
	return nil
}

// Request describes a proposed calendar event to test against an agent's
// existing schedule.
type Request struct {
	AgentID   primitive.ObjectID
	Date      time.Time
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"
}

// ConflictResult lists every existing event the proposed one collides
// with, not just the first.
type ConflictResult struct {
	HasConflict       bool                   `json:"has_conflict"`
	ConflictingEvents []models.CalendarEvent `json:"conflicting_events"`
}

// TimeSlot is a free interval in an agent's day.
type TimeSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Checker holds the scheduling policy: buffer padding and business hours.
// The zero value is not useful; use NewChecker.
type Checker struct {
	BufferMinutes int
	DayStart      string
	DayEnd        string
}

// NewChecker returns a Checker with the default 30-minute buffer and
// 08:00–20:00 business hours.
func NewChecker() Checker {
	return Checker{
		BufferMinutes: DefaultBufferMinutes,
		DayStart:      DefaultDayStart,
		DayEnd:        DefaultDayEnd,
	}
}

// CheckConflict scans existing events for collisions with the proposed
// one. Only events for the same agent on the same calendar day are
// considered; excludeEventID skips the event itself when re-checking an
// edit. Malformed times in the proposal or in stored events surface as an
// error rather than a silent pass.
func (c Checker) CheckConflict(req Request, existing []models.CalendarEvent, excludeEventID *primitive.ObjectID) (ConflictResult, error) {
	newStart, err := ParseTime(req.StartTime)
	if err != nil {
		return ConflictResult{}, err
	}
	newEnd, err := ParseTime(req.EndTime)
	if err != nil {
		return ConflictResult{}, err
	}
	newDate := DateKey(req.Date)

	var conflicts []models.CalendarEvent
	for _, ev := range existing {
		if excludeEventID != nil && ev.ID == *excludeEventID {
			continue
		}
		if ev.AgentID != req.AgentID {
			continue
		}
		if !DateKey(ev.Date).Equal(newDate) {
			continue
		}
		evStart, err := ParseTime(ev.StartTime)
		if err != nil {
			return ConflictResult{}, fmt.Errorf("stored event %s: %w", ev.ID.Hex(), err)
		}
		evEnd, err := ParseTime(ev.EndTime)
		if err != nil {
			return ConflictResult{}, fmt.Errorf("stored event %s: %w", ev.ID.Hex(), err)
		}
		if RangesOverlap(newStart, newEnd, evStart, evEnd, c.BufferMinutes) {
			conflicts = append(conflicts, ev)
		}
	}

	return ConflictResult{
		HasConflict:       len(conflicts) > 0,
		ConflictingEvents: conflicts,
	}, nil
}

// IsAgentAvailable reports whether the proposed event fits the agent's
// schedule without conflicts.
func (c Checker) IsAgentAvailable(req Request, existing []models.CalendarEvent) (bool, error) {
	res, err := c.CheckConflict(req, existing, nil)
	if err != nil {
		return false, err
	}
	return !res.HasConflict, nil
}

// FindAvailableSlots returns the free intervals in an agent's day, in
// start-time order, that can hold an event of slotDuration minutes plus
// buffer. With no events the whole business day is one slot.
func (c Checker) FindAvailableSlots(agentID primitive.ObjectID, date time.Time, existing []models.CalendarEvent, slotDuration int) ([]TimeSlot, error) {
	dayStart, err := ParseTime(c.DayStart)
	if err != nil {
		return nil, err
	}
	dayEnd, err := ParseTime(c.DayEnd)
	if err != nil {
		return nil, err
	}

	type interval struct{ start, end int }
	day := DateKey(date)
	var agentEvents []interval
	for _, ev := range existing {
		if ev.AgentID != agentID || !DateKey(ev.Date).Equal(day) {
			continue
		}
		s, err := ParseTime(ev.StartTime)
		if err != nil {
			return nil, fmt.Errorf("stored event %s: %w", ev.ID.Hex(), err)
		}
		e, err := ParseTime(ev.EndTime)
		if err != nil {
			return nil, fmt.Errorf("stored event %s: %w", ev.ID.Hex(), err)
		}
		agentEvents = append(agentEvents, interval{s, e})
	}
	sort.Slice(agentEvents, func(i, j int) bool { return agentEvents[i].start < agentEvents[j].start })

	var slots []TimeSlot
	current := dayStart

	for _, ev := range agentEvents {
		// Free slot before this event, keeping clear of its buffer.
		bufferedStart := ev.start - c.BufferMinutes
		if current+slotDuration+c.BufferMinutes <= bufferedStart {
			slots = append(slots, TimeSlot{
				StartTime: FormatMinutes(current),
				EndTime:   FormatMinutes(bufferedStart - c.BufferMinutes),
			})
		}
		// Continue after the event plus buffer.
		if after := ev.end + c.BufferMinutes; after > current {
			current = after
		}
	}

	// Trailing slot up to closing time.
	if current+slotDuration <= dayEnd {
		slots = append(slots, TimeSlot{
			StartTime: FormatMinutes(current),
			EndTime:   FormatMinutes(dayEnd),
		})
	}

	return slots, nil
}

// RecommendedSlots returns up to five one-hour openings for the agent on
// the given day.
func (c Checker) RecommendedSlots(agentID primitive.ObjectID, date time.Time, existing []models.CalendarEvent) ([]TimeSlot, error) {
	slots, err := c.FindAvailableSlots(agentID, date, existing, 60)
	if err != nil {
		return nil, err
	}
	if len(slots) > 5 {
		slots = slots[:5]
	}
	return slots, nil
}

// ConflictMessage builds a human-readable description of the colliding
// events for the caller to surface.
func (c Checker) ConflictMessage(conflicts []models.CalendarEvent) string {
	if len(conflicts) == 0 {
		return ""
	}
	var lines []string
	for _, ev := range conflicts {
		lines = append(lines, fmt.Sprintf("- %s on %s from %s to %s",
			ev.Title, ev.Date.Format("January 2, 2006"), ev.StartTime, ev.EndTime))
	}
	return fmt.Sprintf("This time slot conflicts with existing event(s) (including %d-minute buffer):\n%s",
		c.BufferMinutes, strings.Join(lines, "\n"))
}
