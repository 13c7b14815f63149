package utils

import (
	"errors"
	"iter"

	"github.com/oomph-ac/locomotion/oerror"
)

// CircularQueue is a fixed capacity FIFO. Appending to a full queue overwrites the oldest element.
type CircularQueue[T any] struct {
	items []T
	head  int
	tail  int
	size  int
}

func NewCircularQueue[T any](capacity int, propagate func() T) *CircularQueue[T] {
	queue := &CircularQueue[T]{
		items: make([]T, capacity),
	}
	if propagate != nil {
		for index := range queue.items {
			queue.items[index] = propagate()
		}
	}
	return queue
}

// Get returns the element at logical position index (0 = oldest), or an error if out of range.
func (q *CircularQueue[T]) Get(index int) (T, error) {
	var zero T
	if index < 0 || index >= q.size {
		return zero, errors.New("circularqueue: get out of range")
	}
	return q.items[(q.head+index)%len(q.items)], nil
}

// Set sets the element at logical position index (0 = oldest), or returns an error if out of range.
func (q *CircularQueue[T]) Set(index int, item T) error {
	if index < 0 || index >= q.size {
		return errors.New("circularqueue: set out of range")
	}
	q.items[(q.head+index)%len(q.items)] = item
	return nil
}

func (q *CircularQueue[T]) Iter() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for index := range q.size {
			if !yield(index, q.items[(q.head+index)%len(q.items)]) {
				return
			}
		}
	}
}

// Size returns the number of items currently held by the queue.
func (q *CircularQueue[T]) Size() int {
	return q.size
}

// Cap returns the maximum number of items the queue can hold.
func (q *CircularQueue[T]) Cap() int {
	return len(q.items)
}

// Full reports whether the next Append will overwrite the oldest element.
func (q *CircularQueue[T]) Full() bool {
	return len(q.items) > 0 && q.size == len(q.items)
}

// Pop removes and returns the oldest element. The boolean ok is false if the
// queue is empty.
func (q *CircularQueue[T]) Pop() (item T, ok bool) {
	if q.size == 0 {
		return item, false
	}
	var zero T
	item = q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return item, true
}

// Last returns the newest element without removing it.
func (q *CircularQueue[T]) Last() (item T, ok bool) {
	if q.size == 0 {
		return item, false
	}
	return q.items[(q.tail-1+len(q.items))%len(q.items)], true
}

// PopLast removes and returns the newest element.
func (q *CircularQueue[T]) PopLast() (item T, ok bool) {
	if q.size == 0 {
		return item, false
	}
	var zero T
	q.tail = (q.tail - 1 + len(q.items)) % len(q.items)
	item = q.items[q.tail]
	q.items[q.tail] = zero
	q.size--
	return item, true
}

// Discard drops the n oldest elements.
func (q *CircularQueue[T]) Discard(n int) {
	for range min(n, q.size) {
		q.Pop()
	}
}

// Clear removes every element.
func (q *CircularQueue[T]) Clear() {
	q.Discard(q.size)
	q.head, q.tail = 0, 0
}

// Append appends an item or returns an error if the queue has zero capacity.
func (q *CircularQueue[T]) Append(item T) error {
	if len(q.items) == 0 {
		return oerror.New("circularqueue: append on zero-capacity queue")
	}

	q.items[q.tail] = item

	// When full the oldest element at head is overwritten.
	if q.size == len(q.items) {
		q.head = (q.head + 1) % len(q.items)
	} else {
		q.size++
	}
	q.tail = (q.tail + 1) % len(q.items)
	return nil
}
