package monitor

// CallState is the line state derived from the most recent event.
type CallState string

const (
	StateIdle    CallState = "idle"
	StateRinging CallState = "ringing"
	StateDialing CallState = "dialing"
	StateTalking CallState = "talking"
)

// Attribute names of the per-event attribute set.
const (
	AttrType      = "type"
	AttrFrom      = "from"
	AttrTo        = "to"
	AttrWith      = "with"
	AttrDevice    = "device"
	AttrInitiated = "initiated"
	AttrAccepted  = "accepted"
	AttrClosed    = "closed"
	AttrDuration  = "duration"
	AttrRaw       = "raw"
	AttrFromName  = "from_name"
	AttrToName    = "to_name"
	AttrWithName  = "with_name"
)

// Phonebook status values. A failed refresh is reported as "error:<type>".
const (
	PhonebookNotLoaded = "not_loaded"
	PhonebookOK        = "ok"
)

// Snapshot is a copy of the monitor state.
type Snapshot struct {
	State                CallState         `json:"state"`
	Attributes           map[string]string `json:"attributes"`
	PhonebookStatus      string            `json:"phonebook_status"`
	PhonebookEntries     int               `json:"phonebook_entries"`
	PhonebookLastRefresh string            `json:"phonebook_last_refresh,omitempty"`
	Prefixes             []string          `json:"prefixes,omitempty"`
	EventsHandled        uint64            `json:"events_handled"`
}
