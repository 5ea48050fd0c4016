package goBlade

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"
)

// Navigator is the part of the router the session layer drives.
type Navigator interface {
	// CurrentPath returns the current location including its query string.
	CurrentPath() string
	Push(ctx context.Context, path string) error
	// Replace swaps the current location without adding a history entry.
	Replace(ctx context.Context, path string, query url.Values) error
}

// HistoryNavigator is an in-memory [Navigator] for CLIs and tests.
type HistoryNavigator struct {
	mu      sync.Mutex
	entries []string
}

func NewHistoryNavigator(start string) *HistoryNavigator {
	if start == "" {
		start = "/"
	}
	return &HistoryNavigator{entries: []string{start}}
}

func (n *HistoryNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.entries[len(n.entries)-1]
}

func (n *HistoryNavigator) Push(_ context.Context, path string) error {
	n.mu.Lock()
	n.entries = append(n.entries, path)
	n.mu.Unlock()
	return nil
}

func (n *HistoryNavigator) Replace(_ context.Context, path string, query url.Values) error {
	full := withQuery(path, query)
	n.mu.Lock()
	n.entries[len(n.entries)-1] = full
	n.mu.Unlock()
	return nil
}

// Entries returns the history, oldest first.
func (n *HistoryNavigator) Entries() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.entries)
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + query.Encode()
}
