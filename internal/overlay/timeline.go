package overlay

import (
	"fmt"
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/weather"
)

// timelineOffsets are the fixed hour offsets sampled around "now".
var timelineOffsets = [...]int{-6, -3, 0, 3, 6, 9}

// BuildTimeline produces the six fixed-offset activity events. Each
// event's multipliers start from the mean cell severity and ramp up by
// index, so later events read as more intense without any randomness:
// the same inputs always yield the same timeline.
func BuildTimeline(now time.Time, cells []weather.Cell) []TimelineEvent {
	mean := 0.0
	if len(cells) > 0 {
		for _, c := range cells {
			mean += c.Severity
		}
		mean /= float64(len(cells))
	}

	events := make([]TimelineEvent, 0, len(timelineOffsets))
	for i, off := range timelineOffsets {
		base := mean + 0.05*float64(i)
		events = append(events, TimelineEvent{
			ID:                 fmt.Sprintf("timeline-%d", i),
			Label:              offsetLabel(off),
			Description:        fmt.Sprintf("activity sample across %d sites", len(cells)),
			Timestamp:          now.Add(time.Duration(off) * time.Hour),
			OverlayMultipliers: channelRamp(base),
		})
	}
	return events
}

func offsetLabel(hours int) string {
	switch {
	case hours < 0:
		return fmt.Sprintf("T-%dh", -hours)
	case hours == 0:
		return "Now"
	default:
		return fmt.Sprintf("T+%dh", hours)
	}
}
