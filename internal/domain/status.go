package domain

// MessageStatus is the delivery lifecycle of a chat message. Webhook
// deliveries are unordered and at-least-once, so status transitions are
// gated by rank comparison instead of arrival order.
type MessageStatus string

const (
	StatusSending   MessageStatus = "SENDING"
	StatusSent      MessageStatus = "SENT"
	StatusDelivered MessageStatus = "DELIVERED"
	StatusRead      MessageStatus = "READ"
	StatusPlayed    MessageStatus = "PLAYED"
	StatusDeleted   MessageStatus = "DELETED"
)

var statusRanks = map[MessageStatus]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
	StatusPlayed:    4,
	StatusDeleted:   5,
}

// Rank returns the position of s in the total order
// SENDING < SENT < DELIVERED < READ < PLAYED < DELETED.
// Unknown statuses rank below everything.
func Rank(s MessageStatus) int {
	if r, ok := statusRanks[s]; ok {
		return r
	}
	return -1
}

// ShouldApply reports whether incoming may overwrite current. A status is
// applied only when its rank is strictly higher, which makes the stored
// status monotonic under out-of-order delivery and makes DELETED absorbing.
func ShouldApply(current, incoming MessageStatus) bool {
	return Rank(incoming) > Rank(current)
}

// StatusesBelow returns every known status ranked strictly lower than s.
// Repositories use it as the guard set of a conditional UPDATE, so the
// monotonicity check also holds under concurrent writers.
func StatusesBelow(s MessageStatus) []MessageStatus {
	out := make([]MessageStatus, 0, len(statusRanks))
	for st, r := range statusRanks {
		if r < Rank(s) {
			out = append(out, st)
		}
	}
	return out
}

// StatusFromAck maps the provider's small-integer ack codes to a status.
// Codes outside the known set return ok=false and must be ignored.
func StatusFromAck(ack int) (MessageStatus, bool) {
	switch ack {
	case 1:
		return StatusSent, true
	case 2:
		return StatusDelivered, true
	case 3:
		return StatusRead, true
	case 4:
		return StatusPlayed, true
	default:
		return "", false
	}
}
