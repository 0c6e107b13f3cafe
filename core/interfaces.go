package core

// Operation represents a modifying backend storage operation, one of Create, Update, Delete, Apply
type Operation string

// all notified operations
const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationApply  Operation = "apply"
)

// Notifier is an interface to receive resource mutation notifications
type Notifier interface {
	Notify(resource string, operation Operation, payload []byte)
}
