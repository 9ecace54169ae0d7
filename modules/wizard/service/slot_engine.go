package service

import (
	"fmt"
	"time"

	calservice "leadbook/modules/calendar/service"
	"leadbook/modules/wizard/dto"
)

// SlotLabelFormat is the 12-hour label both the catalog and the busy set
// use; busy checks are exact string equality on it, deliberately not
// interval overlap. A meeting starting off the half-hour blocks nothing.
const SlotLabelFormat = calservice.SlotLabelFormat

const (
	SlotFree     = "free"
	SlotBusy     = "busy"
	SlotSelected = "selected"
)

const (
	catalogStartHour = 9
	catalogEndHour   = 15 // last slot starts 15:30
	lunchHour        = 12 // 12:00 and 12:30 excluded
)

// SlotCatalog returns the fixed ordered set of bookable half-hour labels
// for a business day. It is the business's offering, independent of what
// the provider reports as free.
func SlotCatalog() []string {
	var labels []string
	day := time.Date(2000, time.January, 1, catalogStartHour, 0, 0, 0, time.UTC)
	end := time.Date(2000, time.January, 1, catalogEndHour, 30, 0, 0, time.UTC)
	for t := day; !t.After(end); t = t.Add(30 * time.Minute) {
		if t.Hour() == lunchHour {
			continue
		}
		labels = append(labels, t.Format(SlotLabelFormat))
	}
	return labels
}

// ComputeSlotStates marks each catalog label busy, selected or free. Busy
// wins over selected. Pure; recomputed on every state read.
func ComputeSlotStates(catalog, busyLabels []string, selected string) []dto.SlotView {
	busy := make(map[string]struct{}, len(busyLabels))
	for _, label := range busyLabels {
		busy[label] = struct{}{}
	}

	out := make([]dto.SlotView, 0, len(catalog))
	for _, label := range catalog {
		state := SlotFree
		if _, isBusy := busy[label]; isBusy {
			state = SlotBusy
		} else if label == selected {
			state = SlotSelected
		}
		out = append(out, dto.SlotView{Label: label, State: state})
	}
	return out
}

// InCatalog reports whether a label is a bookable slot.
func InCatalog(label string) bool {
	for _, l := range SlotCatalog() {
		if l == label {
			return true
		}
	}
	return false
}

// LabelToTime resolves a slot label on a given day to an absolute instant
// in the business timezone.
func LabelToTime(label string, day time.Time, loc *time.Location) (time.Time, error) {
	parsed, err := time.Parse(SlotLabelFormat, label)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot label %q: %w", label, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}
