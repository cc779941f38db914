package domain

import "time"

// gatewayZone is the gateway's local timezone convention (UTC+7). A fixed
// zone avoids a tzdata dependence at runtime.
var gatewayZone = time.FixedZone("UTC+7", 7*60*60)

const payDateLayout = "20060102150405"

// ParsePayDate parses the gateway's fixed-width pay date (YYYYMMDDhhmmss, 14
// digits) into an instant in the gateway zone. Parsing is best-effort: wrong
// length, non-digit characters or out-of-range calendar fields yield
// (zero, false) and never block the status merge.
func ParsePayDate(raw string) (time.Time, bool) {
	if len(raw) != len(payDateLayout) {
		return time.Time{}, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}
	t, err := time.ParseInLocation(payDateLayout, raw, gatewayZone)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
