package store

import (
	"sync"

	"github.com/MrEthical07/goBlade/access"
)

// Access holds the granted capability codes and notifies subscribers on every
// change so that gates bound to it can re-evaluate.
type Access struct {
	mu     sync.RWMutex
	codes  access.CodeSet
	nextID int
	subs   map[int]func(access.CodeSet)
}

// SetCodes replaces the granted codes.
func (a *Access) SetCodes(codes []string) {
	a.replace(access.NewCodeSet(codes...))
}

// Codes returns a copy of the granted codes.
func (a *Access) Codes() access.CodeSet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.codes.Clone()
}

// AccessCodes implements [access.Source].
func (a *Access) AccessCodes() access.CodeSet {
	return a.Codes()
}

// Clear drops every granted code.
func (a *Access) Clear() {
	a.replace(access.CodeSet{})
}

// Subscribe registers fn to receive the new code set after every change. The
// returned function removes the subscription.
func (a *Access) Subscribe(fn func(access.CodeSet)) func() {
	if fn == nil {
		return func() {}
	}
	a.mu.Lock()
	if a.subs == nil {
		a.subs = make(map[int]func(access.CodeSet))
	}
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}

func (a *Access) replace(next access.CodeSet) {
	a.mu.Lock()
	a.codes = next
	subs := make([]func(access.CodeSet), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.mu.Unlock()

	// Subscribers run outside the lock so they may read the store.
	for _, fn := range subs {
		fn(next.Clone())
	}
}
