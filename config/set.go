package config

import (
	"fmt"
	"sync"

	"github.com/tevino/abool"
)

var (
	validityFlag     = abool.NewBool(true)
	validityFlagLock sync.RWMutex
)

// getValidityFlag returns a flag that signifies if the configuration has been changed. This flag must not be changed, only read.
func getValidityFlag() *abool.AtomicBool {
	validityFlagLock.RLock()
	defer validityFlagLock.RUnlock()
	return validityFlag
}

// signalChanges marks the configs validtityFlag as dirty.
func signalChanges() {
	validityFlagLock.Lock()
	defer validityFlagLock.Unlock()

	validityFlag.SetTo(false)
	validityFlag = abool.NewBool(true)
}

// setConfig sets the (prioritized) user defined config. Options missing in newValues are reset.
func setConfig(newValues map[string]interface{}) error {
	return replaceValues(newValues, false)
}

// SetDefaultConfig sets the (fallback) default config. Options missing in newValues are reset.
func SetDefaultConfig(newValues map[string]interface{}) error {
	return replaceValues(newValues, true)
}

func replaceValues(newValues map[string]interface{}, defaults bool) error {
	var firstErr error
	var errCnt int

	optionsLock.RLock()
	for key, option := range options {
		newValue, ok := newValues[key]

		option.Lock()
		var vc *valueCache
		if ok {
			var err error
			vc, err = validateValue(option, newValue)
			if err != nil {
				errCnt++
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		if defaults {
			option.activeDefaultValue = vc
		} else {
			option.activeValue = vc
		}
		option.Unlock()
	}
	optionsLock.RUnlock()

	signalChanges()

	if firstErr != nil {
		if errCnt > 1 {
			return fmt.Errorf("encountered %d errors, first was: %w", errCnt, firstErr)
		}
		return firstErr
	}
	return nil
}

// SetConfigOption sets a single value in the (prioritized) user defined config. Setting nil resets the value.
func SetConfigOption(key string, value interface{}) error {
	return setConfigOption(key, value, false)
}

// SetDefaultConfigOption sets a single value in the (fallback) default config. Setting nil resets the value.
func SetDefaultConfigOption(key string, value interface{}) error {
	return setConfigOption(key, value, true)
}

func setConfigOption(key string, value interface{}, defaults bool) error {
	option, err := GetOption(key)
	if err != nil {
		return err
	}

	option.Lock()
	var vc *valueCache
	if value != nil {
		vc, err = validateValue(option, value)
	}
	if err == nil {
		if defaults {
			option.activeDefaultValue = vc
		} else {
			option.activeValue = vc
		}
	}
	option.Unlock()
	if err != nil {
		return err
	}

	// finalize change, activate triggers
	signalChanges()
	return nil
}
