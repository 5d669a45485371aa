package forecast

import "fmt"

// Kind selects which provider endpoint a request targets.
type Kind int

const (
	// KindCurrent targets the current-conditions endpoint.
	KindCurrent Kind = iota + 1
	// KindWeekly targets the 5-day / 3-hour forecast endpoint.
	KindWeekly
)

const apiPath = "/data/2.5"

// Path returns the provider path for k, or "" for an unknown kind.
func (k Kind) Path() string {
	switch k {
	case KindCurrent:
		return apiPath + "/weather"
	case KindWeekly:
		return apiPath + "/forecast"
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case KindCurrent:
		return "current"
	case KindWeekly:
		return "weekly"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses "current" or "weekly".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "current":
		return KindCurrent, nil
	case "weekly":
		return KindWeekly, nil
	default:
		return 0, fmt.Errorf("unknown forecast kind %q", s)
	}
}
