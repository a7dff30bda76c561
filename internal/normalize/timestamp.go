package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MAX_EPOCH_SECONDS bounds epoch values to what an int64 nanosecond
// timestamp can hold, roughly 1677-09-21 to 2262-04-11.
const MAX_EPOCH_SECONDS = math.MaxInt64 / int64(time.Second)

var (
	minInstant = time.Unix(0, math.MinInt64).UTC()
	maxInstant = time.Unix(0, math.MaxInt64).UTC()
)

// ToUTC converts v to a UTC instant or returns nil. Datetimes are
// converted, numbers are epoch seconds and anything else is parsed as
// free-form text, with zone-less readings taken as UTC. Instants outside
// the int64 nanosecond range are nil.
func ToUTC(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return bounded(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		return ToUTC(*t)
	case string:
		return parseText(t)
	case []byte:
		return parseText(string(t))
	}

	if IsNumeric(v) {
		if i, ok := Int64(v); ok {
			if i > MAX_EPOCH_SECONDS || i < -MAX_EPOCH_SECONDS {
				return nil
			}
			return bounded(time.Unix(i, 0))
		}
		if f, ok := Float64(v); ok {
			return fromEpoch(f)
		}
		return nil
	}
	return parseText(Stringify(v))
}

func fromEpoch(f float64) *time.Time {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > float64(MAX_EPOCH_SECONDS) {
		return nil
	}
	sec, frac := math.Modf(f)
	return bounded(time.Unix(int64(sec), int64(math.Round(frac*1e9))))
}

func parseText(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	return bounded(parsed)
}

func bounded(t time.Time) *time.Time {
	u := t.UTC()
	if u.Before(minInstant) || u.After(maxInstant) {
		return nil
	}
	return &u
}
