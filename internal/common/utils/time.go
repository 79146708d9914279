package utils

import "time"

// GatewayTimeLayout is the timestamp layout used by the call monitor, e.g. "28.01.26 09:47:17".
const GatewayTimeLayout = "02.01.06 15:04:05"

// ISOLayout is the local ISO-8601 layout without zone used for call attributes.
const ISOLayout = "2006-01-02T15:04:05"

// ParseGatewayTime parses a call monitor timestamp in the local time zone.
func ParseGatewayTime(ts string) (time.Time, error) {
	return time.ParseInLocation(GatewayTimeLayout, ts, time.Local)
}

// GatewayTimeToISO converts a call monitor timestamp to ISO-8601.
// Unparsable input is returned unchanged.
func GatewayTimeToISO(ts string) string {
	t, err := ParseGatewayTime(ts)
	if err != nil {
		return ts
	}
	return t.Format(ISOLayout)
}
