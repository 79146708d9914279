package callmonitor

import (
	"strconv"
	"strings"
	"time"

	"callmonitor-bridge/internal/common/utils"
)

// Kind is the event type in the second field of a call monitor line.
type Kind string

const (
	KindRing       Kind = "RING"
	KindCall       Kind = "CALL"
	KindConnect    Kind = "CONNECT"
	KindDisconnect Kind = "DISCONNECT"
)

// minFields is the number of ';' separated fields each kind needs.
var minFields = map[Kind]int{
	KindRing:       6,
	KindCall:       7,
	KindConnect:    5,
	KindDisconnect: 4,
}

// Event is one parsed call monitor line.
//
//	RING:       ts;RING;id;from;to;device;
//	CALL:       ts;CALL;id;extension;from;to;device;
//	CONNECT:    ts;CONNECT;id;device;peer;
//	DISCONNECT: ts;DISCONNECT;id;duration;
type Event struct {
	Kind         Kind      `json:"kind"`
	Timestamp    string    `json:"timestamp"`
	Time         time.Time `json:"time"`
	ConnectionID string    `json:"connection_id"`
	Extension    string    `json:"extension,omitempty"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to,omitempty"`
	Device       string    `json:"device,omitempty"`
	Peer         string    `json:"peer,omitempty"`
	Duration     string    `json:"duration,omitempty"`
	Raw          string    `json:"raw"`
}

// DurationSeconds returns the DISCONNECT duration, or 0 when absent or invalid.
func (e *Event) DurationSeconds() int {
	n, err := strconv.Atoi(e.Duration)
	if err != nil {
		return 0
	}
	return n
}

// ParseEvent parses a line. Unknown kinds and lines with too few fields
// are reported as not ok.
func ParseEvent(line string) (*Event, bool) {
	parts := strings.Split(line, ";")
	if len(parts) < 2 {
		return nil, false
	}

	kind := Kind(parts[1])
	need, known := minFields[kind]
	if !known || len(parts) < need {
		return nil, false
	}

	ev := &Event{
		Kind:         kind,
		Timestamp:    parts[0],
		ConnectionID: parts[2],
		Raw:          line,
	}
	if t, err := utils.ParseGatewayTime(parts[0]); err == nil {
		ev.Time = t
	}

	switch kind {
	case KindRing:
		ev.From, ev.To, ev.Device = parts[3], parts[4], parts[5]
	case KindCall:
		ev.Extension, ev.From, ev.To, ev.Device = parts[3], parts[4], parts[5], parts[6]
	case KindConnect:
		ev.Device, ev.Peer = parts[3], parts[4]
	case KindDisconnect:
		ev.Duration = parts[3]
	}
	return ev, true
}
