package containers_test

import (
	"testing"

	"github.com/spaghettifunk/forge/engine/containers"
)

func TestEnqueueDequeueOrder(t *testing.T) {
	rq := containers.NewRingQueue[int](4)
	for i := 0; i < 4; i++ {
		rq.Enqueue(i)
	}
	for i := 0; i < 4; i++ {
		v, err := rq.Dequeue()
		if err != nil {
			t.Fatal(err)
		}
		if v != i {
			t.Errorf("expected %d, got %d", i, v)
		}
	}
	if !rq.IsEmpty() {
		t.Error("queue should be empty")
	}
}

func TestDequeueEmpty(t *testing.T) {
	rq := containers.NewRingQueue[string](2)
	if _, err := rq.Dequeue(); err == nil {
		t.Error("expected error on empty dequeue")
	}
}

func TestGrowPastCapacity(t *testing.T) {
	rq := containers.NewRingQueue[int](2)
	// Wrap the read index first so growth has to re-linearize.
	rq.Enqueue(0)
	rq.Enqueue(1)
	if _, err := rq.Dequeue(); err != nil {
		t.Fatal(err)
	}
	for i := 2; i < 10; i++ {
		rq.Enqueue(i)
	}
	if rq.Len() != 9 {
		t.Fatalf("expected 9 elements, got %d", rq.Len())
	}
	for i := 1; i < 10; i++ {
		v, err := rq.Dequeue()
		if err != nil {
			t.Fatal(err)
		}
		if v != i {
			t.Errorf("expected %d, got %d", i, v)
		}
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	rq := containers.NewRingQueue[int](2)
	rq.Enqueue(7)
	v, err := rq.Peek()
	if err != nil {
		t.Fatal(err)
	}
	if v != 7 || rq.Len() != 1 {
		t.Errorf("peek mutated the queue: v=%d len=%d", v, rq.Len())
	}
}

func TestEachVisitsInOrder(t *testing.T) {
	rq := containers.NewRingQueue[int](2)
	for i := 0; i < 5; i++ {
		rq.Enqueue(i)
	}
	var seen []int
	rq.Each(func(v int) bool {
		seen = append(seen, v)
		return true
	})
	if len(seen) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(seen))
	}
	for i, v := range seen {
		if v != i {
			t.Errorf("expected %d at position %d, got %d", i, i, v)
		}
	}
}
