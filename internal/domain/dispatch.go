package domain

// DispatchStatus records when a guest was messaged. Success is always true
// today because the handoff gives no delivery feedback.
type DispatchStatus struct {
	Timestamp string `json:"timestamp" db:"sent_at" bson:"timestamp"`
	Success   bool   `json:"success" db:"success" bson:"success"`
}

// DispatchHistory maps a record's DispatchID to its status. Values of this
// type are treated as immutable snapshots: every change produces a new map.
type DispatchHistory map[string]DispatchStatus

// Clone returns an independent copy. A nil history clones to an empty one.
func (h DispatchHistory) Clone() DispatchHistory {
	out := make(DispatchHistory, len(h))
	for id, status := range h {
		out[id] = status
	}
	return out
}

// With returns a new history with id set to status.
func (h DispatchHistory) With(id string, status DispatchStatus) DispatchHistory {
	out := h.Clone()
	out[id] = status
	return out
}

// Overlay returns a new history holding every entry of h and other, where
// other wins on key collision. There is no timestamp comparison.
func (h DispatchHistory) Overlay(other DispatchHistory) DispatchHistory {
	out := h.Clone()
	for id, status := range other {
		out[id] = status
	}
	return out
}

func (h DispatchHistory) Has(id string) bool {
	_, ok := h[id]
	return ok
}

// WhatsAppLink is a composed message and its wa.me deep link.
type WhatsAppLink struct {
	Phone    string `json:"phone"`
	Template string `json:"template"`
	Message  string `json:"message"`
	URL      string `json:"url"`
}

// SendMode tells how a dispatch was triggered.
type SendMode string

const (
	SendModeSingle      SendMode = "single"
	SendModeNextPending SendMode = "next_pending"
	SendModeBulk        SendMode = "bulk"
	SendModeAll         SendMode = "all"
)

// SendResult describes one dispatch.
type SendResult struct {
	Index        int            `json:"index"`
	DispatchID   string         `json:"dispatchId"`
	Mode         SendMode       `json:"mode"`
	Link         WhatsAppLink   `json:"link"`
	Status       DispatchStatus `json:"status"`
	HandoffError string         `json:"handoffError,omitempty"`
}

// HandoffRequest is the payload forwarded to the handoff webhook.
type HandoffRequest struct {
	To         string `json:"to"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	DispatchID string `json:"dispatchId"`
}
