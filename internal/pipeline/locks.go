package pipeline

import "sync"

// LockTable serializes jobs per resource: at most one held lock per resource
// id at any time. Locks are in-memory only; a process restart clears them,
// which callers handle by treating an unanswered job as failed.
type LockTable struct {
	mu   sync.Mutex
	held map[string]string // resource id -> owning job id
}

// NewLockTable creates an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{held: make(map[string]string)}
}

// Acquire attempts to take the lock for a resource on behalf of a job.
// Atomic with respect to concurrent callers: exactly one of them wins.
func (t *LockTable) Acquire(resourceID, jobID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.held[resourceID]; ok {
		return false
	}
	t.held[resourceID] = jobID
	return true
}

// Release frees the lock for a resource. Releasing a free lock is a no-op:
// cleanup runs on both the success and failure branches and must not care
// which one got there first.
func (t *LockTable) Release(resourceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, resourceID)
}

// Holder returns the job currently holding a resource's lock, if any.
func (t *LockTable) Holder(resourceID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	jobID, ok := t.held[resourceID]
	return jobID, ok
}
