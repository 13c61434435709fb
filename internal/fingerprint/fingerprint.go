// Package fingerprint detects meaningful local changes to synced entities.
//
// A fingerprint is a content hash over the fields that reach the remote
// representation. Fields tagged `hash:"ignore"` (timestamps, remote ids
// persisted locally, derived counters) never affect it.
package fingerprint

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
)

// Action is the reconciliation decision for one entity.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	default:
		return "none"
	}
}

// Compute returns a stable fingerprint for v.
func Compute(v any) (string, error) {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, &hashstructure.HashOptions{
		ZeroNil:         true,
		IgnoreZeroValue: true,
		SlicesAsSets:    false,
	})
	if err != nil {
		return "", fmt.Errorf("hashing entity: %w", err)
	}
	return strconv.FormatUint(h, 16), nil
}

// Decide returns ActionUpdate only when a previous fingerprint exists, it
// differs from the current one and no sync is already in flight.
// The first observation of an entity never triggers a sync.
func Decide(previous, current string, inFlight bool) Action {
	if inFlight || previous == "" || current == "" {
		return ActionNone
	}
	if previous == current {
		return ActionNone
	}
	return ActionUpdate
}

// Tracker remembers the last fingerprint seen for one entity instance.
type Tracker struct {
	mu       sync.Mutex
	previous string
}

// Observe records current as the latest fingerprint and returns the decision
// against the one observed before it. An empty current is not recorded.
func (t *Tracker) Observe(current string, inFlight bool) Action {
	t.mu.Lock()
	defer t.mu.Unlock()

	action := Decide(t.previous, current, inFlight)
	if current != "" {
		t.previous = current
	}
	return action
}

// Previous returns the last observed fingerprint, or "" before the first observation.
func (t *Tracker) Previous() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.previous
}

// Reset forgets the last observation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.previous = ""
	t.mu.Unlock()
}
