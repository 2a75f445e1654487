package temporal

import (
	"context"
	"sort"

	"github.com/agenthands/distill/internal/core/model"
)

// TimelineBuilder orders date-bearing events chronologically.
type TimelineBuilder struct {
	Dates *DateNormalizer
}

func NewTimelineBuilder(dates *DateNormalizer) *TimelineBuilder {
	return &TimelineBuilder{Dates: dates}
}

// Build attaches normalized_date to each event (the raw date string is
// left untouched) and returns the events sorted ascending. Events whose
// date does not normalize sort by their raw string, so they still get a
// deterministic position. The sort is stable: equal keys keep their
// relative input order.
func (b *TimelineBuilder) Build(ctx context.Context, events []model.TimelineEvent) []model.TimelineEvent {
	if len(events) == 0 {
		return events
	}

	type keyed struct {
		event model.TimelineEvent
		key   string
	}

	ordered := make([]keyed, len(events))
	for i, ev := range events {
		out := make(model.TimelineEvent, len(ev)+1)
		for k, v := range ev {
			out[k] = v
		}

		key := ev.Date()
		if normalized, ok := b.Dates.Normalize(ctx, ev.Date()); ok {
			out[model.NormalizedDateKey] = normalized
			key = normalized
		}
		ordered[i] = keyed{event: out, key: key}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].key < ordered[j].key
	})

	result := make([]model.TimelineEvent, len(ordered))
	for i, k := range ordered {
		result[i] = k.event
	}
	return result
}
