package sim

// Event pairs a model with a value. It is used for input injected by a
// driver (Model is the target), for routing decisions made by a Network
// (Model is the target) and for output notifications (Model is the source).
//
// The zero Event is a placeholder and is never delivered.
type Event struct {
	Model Model
	Value any
}

// IsEmpty reports whether e is the placeholder event.
func (e Event) IsEmpty() bool {
	return e.Model == nil
}
