package utils

import "testing"

func TestCircularQueueOverwritesOldest(t *testing.T) {
	q := NewCircularQueue[int](3, nil)
	for i := 1; i <= 4; i++ {
		if err := q.Append(i); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if q.Size() != 3 {
		t.Fatalf("expected size 3, got %d", q.Size())
	}
	if v, _ := q.Get(0); v != 2 {
		t.Fatalf("expected oldest to be 2, got %d", v)
	}
	if v, _ := q.Last(); v != 4 {
		t.Fatalf("expected newest to be 4, got %d", v)
	}
}

func TestCircularQueuePopLastAndDiscard(t *testing.T) {
	q := NewCircularQueue[int](4, nil)
	for i := range 4 {
		_ = q.Append(i)
	}
	if v, ok := q.PopLast(); !ok || v != 3 {
		t.Fatalf("expected to pop 3, got %d (%v)", v, ok)
	}
	q.Discard(2)
	if q.Size() != 1 {
		t.Fatalf("expected one element left, got %d", q.Size())
	}
	if v, _ := q.Get(0); v != 2 {
		t.Fatalf("expected remaining element 2, got %d", v)
	}
	_ = q.Append(9)
	var got []int
	for _, v := range q.Iter() {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 9 {
		t.Fatalf("unexpected iteration order %v", got)
	}
}

func TestCircularQueueZeroCapacity(t *testing.T) {
	q := NewCircularQueue[int](0, nil)
	if err := q.Append(1); err == nil {
		t.Fatalf("expected error on zero capacity queue")
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty pop to fail")
	}
}
