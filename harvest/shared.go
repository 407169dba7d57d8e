package harvest

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Kind identifies a built-in harvester type.
type Kind string

// Built-in harvester kinds.
const (
	KindTick Kind = "tick"
	KindRace Kind = "race"
)

var (
	sharedLock sync.Mutex
	shared     = make(map[Kind]*Harvester)
)

// Shared returns the process wide harvester of the given kind, creating it
// on first use. Shared harvesters have no fallback.
func Shared(kind Kind) *Harvester {
	sharedLock.Lock()
	defer sharedLock.Unlock()

	h, ok := shared[kind]
	if ok && !h.closed.IsSet() {
		return h
	}

	var sampler Sampler
	switch kind {
	case KindRace:
		sampler = NewRaceSampler()
	default:
		kind = KindTick
		sampler = NewTickSampler()
	}

	h, _ = New(Config{
		Name:    "shared-" + string(kind),
		Sampler: sampler,
	})
	shared[kind] = h
	return h
}

// CloseShared stops all shared harvesters.
func CloseShared() error {
	sharedLock.Lock()
	defer sharedLock.Unlock()

	var result *multierror.Error
	for kind, h := range shared {
		if err := h.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		delete(shared, kind)
	}
	return result.ErrorOrNil()
}
