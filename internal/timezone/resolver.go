// Package timezone projects the provider's timezone descriptors onto
// concrete locations. Resolution never fails: anything it can not make sense
// of is treated as UTC, so callers must not rely on it where a wrong zone
// would matter for correctness.
package timezone

import (
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

var locationCache sync.Map // map[string]*time.Location

// Location returns the location described by spec, falling back to UTC.
func Location(spec domain.TimestampSpec) *time.Location {
	switch spec.Kind() {
	case domain.TimezoneUTC:
		return time.UTC
	case domain.TimezoneFixedOffset:
		minutes, ok := parseOffset(spec.Timezone)
		if !ok {
			return time.UTC
		}
		return time.FixedZone(spec.Timezone, minutes*60)
	case domain.TimezoneNamed:
		return namedLocation(spec.Timezone)
	default:
		return time.UTC
	}
}

// Resolve projects ref into the zone of spec.
func Resolve(spec domain.TimestampSpec, ref time.Time) time.Time {
	return ref.In(Location(spec))
}

// LocalNow formats ref as a wall-clock string in the zone of spec, in the
// layout stored expiry values are compared against.
func LocalNow(spec domain.TimestampSpec, ref time.Time) string {
	return Resolve(spec, ref).Format(domain.CompareLayout)
}

// Instant parses the wall-clock value of spec in its own zone.
func Instant(spec domain.TimestampSpec) (time.Time, error) {
	// fractional seconds are accepted even though the layout omits them
	return time.ParseInLocation(domain.CompareLayout, strings.TrimSpace(spec.Value), Location(spec))
}

// parseOffset reads a signed HHMM (or HH:MM) offset. The sign applies to
// both the hour and the minute part.
func parseOffset(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}
	hours, err := strconv.Atoi(s[:3])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(s[:1] + s[3:])
	if err != nil || minutes <= -60 || minutes >= 60 {
		return 0, false
	}
	return hours*60 + minutes, true
}

func namedLocation(name string) *time.Location {
	if cached, ok := locationCache.Load(name); ok {
		return cached.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		loc = time.UTC
	}
	locationCache.Store(name, loc)
	return loc
}
