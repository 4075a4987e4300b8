package order

// IDGenerator produces identifiers for new orders.
type IDGenerator interface {
	NewID() string
}
