package domain

// Layouts of the provider's wall-clock strings. Stored values carry
// microseconds; freshness checks compare against the second-precision form.
const (
	TimestampLayout = "2006-01-02 15:04:05.000000"
	CompareLayout   = "2006-01-02 15:04:05"
)

// Provider timezone_type codes.
const (
	TimezoneTypeOffset       = 1
	TimezoneTypeAbbreviation = 2
	TimezoneTypeIdentifier   = 3
)

// TimezoneZulu is the descriptor the provider uses for UTC.
const TimezoneZulu = "Z"

type TimezoneKind int

const (
	TimezoneUnknown TimezoneKind = iota
	TimezoneUTC
	TimezoneFixedOffset
	TimezoneNamed
)

func (k TimezoneKind) String() string {
	switch k {
	case TimezoneUTC:
		return "utc"
	case TimezoneFixedOffset:
		return "fixed_offset"
	case TimezoneNamed:
		return "named_zone"
	default:
		return "unknown"
	}
}

// TimestampSpec is a local wall-clock value together with the timezone
// descriptor it was reported in. Two specs are only comparable after both
// are projected to an absolute instant.
type TimestampSpec struct {
	Value        string `json:"date"`
	TimezoneType int    `json:"timezone_type"`
	Timezone     string `json:"timezone"`
}

// Kind classifies the descriptor. "Z" always means UTC, whatever the type code.
func (s TimestampSpec) Kind() TimezoneKind {
	if s.Timezone == TimezoneZulu {
		return TimezoneUTC
	}
	switch s.TimezoneType {
	case TimezoneTypeOffset:
		return TimezoneFixedOffset
	case TimezoneTypeAbbreviation, TimezoneTypeIdentifier:
		return TimezoneNamed
	default:
		return TimezoneUnknown
	}
}
