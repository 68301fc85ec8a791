package order

// Status is an order's position in the fulfilment lifecycle.
type Status string

const (
	StatusReceived  Status = "received"
	StatusPreparing Status = "preparing"
	StatusOnTheWay  Status = "on-the-way"
	StatusDelivered Status = "delivered"
)

var statusRank = map[Status]int{
	StatusReceived:  0,
	StatusPreparing: 1,
	StatusOnTheWay:  2,
	StatusDelivered: 3,
}

// Statuses returns the lifecycle in order.
func Statuses() []Status {
	return []Status{StatusReceived, StatusPreparing, StatusOnTheWay, StatusDelivered}
}

// Valid reports whether s names a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
// With forwardOnly off any transition between valid statuses is allowed; with
// it on, an order never moves backwards. Re-applying the current status is
// always permitted so blanket updates stay idempotent.
func CanTransition(from, to Status, forwardOnly bool) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if !forwardOnly {
		return true
	}
	return toRank >= fromRank
}
