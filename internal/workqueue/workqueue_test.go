package workqueue

import (
	"testing"
	"time"

	"github.com/qdrant-operator/operator/internal/state"
)

func TestScheduleDebouncesBurst(t *testing.T) {
	q := New("test")
	defer q.ShutDown()

	key := state.Key{Kind: "QdrantCluster", Namespace: "ns", Name: "demo"}

	for i := 0; i < 5; i++ {
		q.Schedule(key)
	}

	got, shutdown := q.Get()
	if shutdown {
		t.Fatal("unexpected shutdown")
	}
	if got != key {
		t.Fatalf("got %+v, want %+v", got, key)
	}
	q.Done(key)

	if q.Len() != 0 {
		t.Fatalf("expected queue to be drained after single debounced item, len=%d", q.Len())
	}
}

func TestScheduleAgainAfterGetReEnqueues(t *testing.T) {
	q := New("test")
	defer q.ShutDown()

	key := state.Key{Kind: "QdrantCollection", Namespace: "ns", Name: "demo"}

	q.Schedule(key)
	got, _ := q.Get()
	q.Done(got)

	q.Schedule(key)

	got2, shutdown := q.Get()
	if shutdown {
		t.Fatal("unexpected shutdown")
	}
	if got2 != key {
		t.Fatalf("got %+v, want %+v", got2, key)
	}
	q.Done(got2)
}

func TestShutDownUnblocksGet(t *testing.T) {
	q := New("test")

	done := make(chan struct{})
	go func() {
		_, shutdown := q.Get()
		if !shutdown {
			t.Error("expected shutdown true after ShutDown")
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.ShutDown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Get did not unblock after ShutDown")
	}
}
