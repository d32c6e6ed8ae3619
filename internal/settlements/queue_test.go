package settlements

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
)

func TestTaskRingFIFO(t *testing.T) {
	var q TaskRing
	for i := 0; i < 5; i++ {
		assert.True(t, q.Push(agents.Task{Kind: agents.TaskGatherFood, X: i}))
	}
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		task, ok := q.Pop()
		assert.True(t, ok)
		assert.Equal(t, i, task.X, "tasks came out of order")
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestTaskRingSaturates(t *testing.T) {
	var q TaskRing
	for i := 0; i < taskRingCap; i++ {
		assert.True(t, q.Push(agents.Task{Kind: agents.TaskPatrol}))
	}
	assert.Zero(t, q.Free())

	// Overflow declines without disturbing queued work.
	assert.False(t, q.Push(agents.Task{Kind: agents.TaskBuild}))
	assert.Equal(t, taskRingCap, q.Len())

	task, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, agents.TaskPatrol, task.Kind)
	assert.Equal(t, 1, q.Free())
}

func TestTaskRingWrapsAround(t *testing.T) {
	var q TaskRing
	// Drive head past the buffer end.
	for round := 0; round < 3; round++ {
		for i := 0; i < taskRingCap-1; i++ {
			assert.True(t, q.Push(agents.Task{X: round, Y: i}))
		}
		for i := 0; i < taskRingCap-1; i++ {
			task, ok := q.Pop()
			assert.True(t, ok)
			assert.Equal(t, round, task.X)
			assert.Equal(t, i, task.Y)
		}
	}
}

func TestTaskRingClear(t *testing.T) {
	var q TaskRing
	for i := 0; i < 10; i++ {
		q.Push(agents.Task{Kind: agents.TaskGatherWood})
	}
	q.Clear()
	assert.Zero(t, q.Len())
	assert.Equal(t, taskRingCap, q.Free())
	_, ok := q.Pop()
	assert.False(t, ok)
}
