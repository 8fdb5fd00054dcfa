package outbound

// TaskDispatcher is the process-wide bounded worker pool. Submit blocks when
// the pool is saturated, which is what queues per-segment work in index order.
type TaskDispatcher interface {
	Submit(task func()) error
}
