package model

// Timeline field attribute keys. An event is any object carrying a raw
// "date" string; normalization attaches "normalized_date" next to it and
// leaves the original untouched.
const (
	DateKey           = "date"
	NormalizedDateKey = "normalized_date"
)

// TimelineEvent is a date-bearing object with arbitrary extra attributes.
type TimelineEvent map[string]interface{}

// Date returns the raw date string, or "" when absent or not a string.
func (e TimelineEvent) Date() string {
	s, _ := e[DateKey].(string)
	return s
}
