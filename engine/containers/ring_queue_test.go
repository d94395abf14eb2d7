package containers

import (
	"errors"
	"reflect"
	"testing"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := rq.Enqueue(4); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("enqueue on full queue: got %v, want ErrQueueFull", err)
	}
	if v, _ := rq.Peek(); v != 1 {
		t.Fatalf("peek: got %d, want 1", v)
	}
	for want := 1; want <= 3; want++ {
		got, err := rq.Dequeue()
		if err != nil || got != want {
			t.Fatalf("dequeue: got %d, %v; want %d", got, err, want)
		}
	}
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("dequeue on empty queue: got %v, want ErrQueueEmpty", err)
	}
}

func TestRingQueuePushDropsOldest(t *testing.T) {
	tests := []struct {
		name   string
		pushes []int
		want   []int
	}{
		{"partial", []int{1, 2}, []int{1, 2}},
		{"exactly full", []int{1, 2, 3}, []int{1, 2, 3}},
		{"wrapped", []int{1, 2, 3, 4, 5}, []int{3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rq := NewRingQueue[int](3)
			for _, v := range tt.pushes {
				rq.Push(v)
			}
			if got := rq.Values(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("values: got %v, want %v", got, tt.want)
			}
			if rq.Len() != len(tt.want) {
				t.Fatalf("len: got %d, want %d", rq.Len(), len(tt.want))
			}
		})
	}
}
