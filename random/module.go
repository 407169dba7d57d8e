package random

import (
	"context"
	"errors"
	"time"

	"github.com/safing/portrand/harvest"
	"github.com/safing/portrand/log"
	"github.com/safing/portrand/modules"
)

var module *modules.Module

func init() {
	if err := registerConfig(); err != nil {
		panic(err)
	}
	module = modules.Register("random", prep, start, stop)
}

func prep() error {
	return checkConfig()
}

func start() error {
	module.StartServiceWorker("warm up harvesters", 0, warmUp)
	return nil
}

// warmUp makes sure the shared engines and harvesters exist, so that the
// harvesters fill their queues before the first draw.
func warmUp(ctx context.Context) error {
	started := time.Now()

	if _, err := DefaultFast(); err != nil {
		return err
	}
	kinds := []harvest.Kind{harvest.KindRace}
	if slowTickSourceOption() {
		kinds = append(kinds, harvest.KindTick)
	}
	for _, kind := range kinds {
		harvest.Shared(kind)
	}

	log.Infof("random: engines ready after %s", time.Since(started).Round(time.Millisecond))
	return ctx.Err()
}

func stop() error {
	err := CloseDefaults()
	if err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}
