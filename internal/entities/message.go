package entities

// ChatSuffix is the transport-specific suffix appended to a normalized
// phone number to form a chat identifier.
const ChatSuffix = "@c.us"

// Message is one inbound chat event. It lives only for the duration of a
// single handler invocation; nothing here is persisted.
type Message struct {
	ChatID   string // conversation address, e.g. "5551234567@c.us"
	Sender   string // bare phone number of the sender
	Text     string
	IsGroup  bool
	Location *Location // non-nil when the event carries coordinates
}

// Location is a shared geographic position.
type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// BackendReply is the response shape of the backend /chat and /location
// endpoints. Answer may be empty, in which case there is nothing to relay.
type BackendReply struct {
	Answer string `json:"answer"`
}

// OrderActionResult is the response of /restaurant-response/{orderID}.
type OrderActionResult struct {
	Status string `json:"status"`
}

// Order actions accepted by the backend.
const (
	OrderActionConfirm = "confirm"
	OrderActionReject  = "reject"
)

// OK reports whether the backend accepted the decision.
func (r *OrderActionResult) OK() bool {
	return r != nil && r.Status == "success"
}
