package outbound

// TaskDispatcher runs a function on the shared worker pool. *ants.Pool
// satisfies it.
type TaskDispatcher interface {
	Submit(task func()) error
}
