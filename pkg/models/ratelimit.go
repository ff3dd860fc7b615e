package models

// Denial reasons reported by the admission controller.
const (
	ReasonOK          = "ok"
	ReasonShortWindow = "short-window exceeded"
	ReasonLongWindow  = "long-window exceeded"
)

// LimitDecision is the outcome of an admission check for one client.
type LimitDecision struct {
	Allowed        bool   `json:"allowed"`
	Reason         string `json:"reason"`
	RemainingShort int    `json:"remaining_short"`
	RemainingLong  int    `json:"remaining_long"`
}

// LimitStatus shows a client's current window usage without recording a
// request. Allowed and Reason are what a check made now would decide.
type LimitStatus struct {
	ClientID       string `json:"client_id"`
	Allowed        bool   `json:"allowed"`
	Reason         string `json:"reason"`
	CountShort     int    `json:"count_short"`
	CountLong      int    `json:"count_long"`
	LimitShort     int    `json:"limit_short"`
	LimitLong      int    `json:"limit_long"`
	RemainingShort int    `json:"remaining_short"`
	RemainingLong  int    `json:"remaining_long"`
}
