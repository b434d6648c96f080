package todo

// Op names the store operation behind an Event.
type Op string

const (
	OpCreate     Op = "create"
	OpToggle     Op = "toggle"
	OpStartEdit  Op = "start_edit"
	OpSetText    Op = "set_edit_text"
	OpCancelEdit Op = "cancel_edit"
	OpSaveEdit   Op = "save_edit"
	OpDelete     Op = "delete"
	OpImport     Op = "import"
)

// Event is delivered to observers once an operation has settled.
// Changed is true when the list itself was modified. Err holds the
// validation error or persistence failure, if any.
type Event struct {
	Op      Op
	ID      int64
	Changed bool
	Err     error
}

// Observer is notified after every store operation.
type Observer interface {
	StoreChanged(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) StoreChanged(ev Event) { f(ev) }
