package settlements

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
)

// taskRingCap bounds how much work one settlement can queue in a day.
const taskRingCap = 64

// TaskRing is a fixed-capacity ring buffer of work orders. Push declines
// silently when full; producers for the day just stop emitting. This is a
// saturation policy, not an error.
type TaskRing struct {
	buf   [taskRingCap]agents.Task
	head  int
	count int
}

// Push enqueues a task, returning false when the ring is full.
func (q *TaskRing) Push(t agents.Task) bool {
	if q.count == taskRingCap {
		return false
	}
	q.buf[(q.head+q.count)%taskRingCap] = t
	q.count++
	return true
}

// Pop dequeues the oldest task.
func (q *TaskRing) Pop() (agents.Task, bool) {
	if q.count == 0 {
		return agents.Task{}, false
	}
	t := q.buf[q.head]
	q.buf[q.head] = agents.Task{}
	q.head = (q.head + 1) % taskRingCap
	q.count--
	return t, true
}

// Len returns the queued task count.
func (q *TaskRing) Len() int { return q.count }

// Free returns remaining capacity.
func (q *TaskRing) Free() int { return taskRingCap - q.count }

// Clear drops all queued tasks.
func (q *TaskRing) Clear() {
	for q.count > 0 {
		q.Pop()
	}
	q.head = 0
}
