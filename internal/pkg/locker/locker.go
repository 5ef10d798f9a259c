package locker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// KeyedMutex provides per-key mutual exclusion. It backs the
// per-(employee, date) critical section around conflict checks so two
// concurrent requests cannot both pass the check and insert overlapping
// assignments.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. The entry is dropped once no
// goroutine holds or waits on it.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("locker: unlock of unheld key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// Locked runs fn while holding the mutex for the employee's working day.
// It implements the assignment domain's critical section for in-process
// deployments and tests; the postgres repository layer provides the
// advisory-lock equivalent.
func (k *KeyedMutex) Locked(ctx context.Context, employeeID string, date time.Time, fn func(ctx context.Context) error) error {
	key := AssignmentKey(employeeID, date)
	k.Lock(key)
	defer k.Unlock(key)
	return fn(ctx)
}

// AssignmentKey builds the lock key for an employee's working day.
func AssignmentKey(employeeID string, date time.Time) string {
	return fmt.Sprintf("assignment:%s:%s", employeeID, date.Format("2006-01-02"))
}
