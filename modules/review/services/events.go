package services

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is published for every failed operation and every successful mutation.
type Toast struct {
	Kind      ToastKind
	Operation Operation
	Message   string
}

// StateChanged is published after each committed store update. Operation is
// empty for local changes such as selection and filters.
type StateChanged struct {
	Operation Operation
	State     OpState
}
