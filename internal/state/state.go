// Package state holds the process-wide, in-memory control-plane state
// described in spec.md §3 and §9 ("global mutable maps"). It is a single
// owned value passed by reference to the components that need it; the
// watch loops, reconcile workers and status-writer timers call it from
// separate goroutines, so every access is serialized by one mutex.
package state

import (
	"sync"

	"k8s.io/apimachinery/pkg/runtime"
)

// Key identifies a watched resource by namespace/name, qualified by kind so
// that a ClusterResource and a CollectionResource with the same name never
// collide.
type Key struct {
	Kind      string
	Namespace string
	Name      string
}

// PendingEvent is a buffered watch event replayed once a status write's
// lock clears (spec.md §4.7).
type PendingEvent struct {
	Phase  string
	Object runtime.Object
}

// Store is the control-plane state singleton. Zero value is not usable;
// build with New.
//
// Every access goes through mu: the routers (one per watch goroutine), the
// reconcile workers, the finalizer, the status writer's lock-release
// goroutines and the resync sweeper all share one Store.
type Store struct {
	mu sync.Mutex

	lastObservedVersion map[Key]string
	cache               map[Key]runtime.Object
	activeSet           map[Key]struct{}
	settingStatus       map[Key]struct{}
	pendingEvents       map[Key][]PendingEvent
	shuttingDown        bool
}

func New() *Store {
	return &Store{
		lastObservedVersion: make(map[Key]string),
		cache:               make(map[Key]runtime.Object),
		activeSet:           make(map[Key]struct{}),
		settingStatus:       make(map[Key]struct{}),
		pendingEvents:       make(map[Key][]PendingEvent),
	}
}

// --- dedup / cache -----------------------------------------------------

func (s *Store) LastObservedVersion(k Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.lastObservedVersion[k]
	return v, ok
}

func (s *Store) SetLastObservedVersion(k Key, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastObservedVersion[k] = version
}

func (s *Store) Cache(k Key) (runtime.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache[k]
	return v, ok
}

func (s *Store) SetCache(k Key, obj runtime.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[k] = obj
}

func (s *Store) Forget(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastObservedVersion, k)
	delete(s.cache, k)
	delete(s.activeSet, k)
	delete(s.settingStatus, k)
	delete(s.pendingEvents, k)
}

// --- single-flight activeSet --------------------------------------------

// TryStart marks k as actively reconciling, returning false if it already
// was (single-flight, spec.md §8 invariant 4).
func (s *Store) TryStart(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.activeSet[k]; busy {
		return false
	}
	s.activeSet[k] = struct{}{}
	return true
}

func (s *Store) Finish(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeSet, k)
}

func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeSet)
}

// --- status write lock + pending event buffer ---------------------------

func (s *Store) IsSettingStatus(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.settingStatus[k]
	return ok
}

func (s *Store) LockStatus(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingStatus[k] = struct{}{}
}

func (s *Store) UnlockStatus(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settingStatus, k)
}

// BufferEvent appends ev to k's pending-events queue while a status write
// is in flight (spec.md §4.3 step 1 / §4.7).
func (s *Store) BufferEvent(k Key, ev PendingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingEvents[k] = append(s.pendingEvents[k], ev)
}

// DrainEvents returns and clears k's buffered events, for replay once the
// status lock clears.
func (s *Store) DrainEvents(k Key) []PendingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	evs := s.pendingEvents[k]
	delete(s.pendingEvents, k)
	return evs
}

// --- shutdown latch -------------------------------------------------------

func (s *Store) ShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

func (s *Store) SetShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}

// Snapshot is a point-in-time view of sizes for the metrics exporter.
type Snapshot struct {
	Active        int
	PendingEvents int
	Cached        int
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := 0
	for _, v := range s.pendingEvents {
		pending += len(v)
	}

	return Snapshot{
		Active:        len(s.activeSet),
		PendingEvents: pending,
		Cached:        len(s.cache),
	}
}
