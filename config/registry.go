package config

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

var (
	optionsLock sync.RWMutex
	options     = make(map[string]*Option)

	// ErrIncompleteCall is return when RegisterOption is called with empty mandatory values.
	ErrIncompleteCall = errors.New("could not register config option: all fields, except for the validationRegex are mandatory")
	// ErrOptionNotFound is returned when an unregistered option is requested.
	ErrOptionNotFound = errors.New("option not found")
)

// Register registers a new configuration option. Registering an already registered key replaces the option, but keeps its active values.
func Register(option *Option) error {
	if option.Name == "" ||
		option.Key == "" ||
		option.Description == "" ||
		option.ExpertiseLevel == 0 ||
		option.OptType == 0 {
		return ErrIncompleteCall
	}

	if option.ValidationRegex != "" {
		var err error
		option.compiledRegex, err = regexp.Compile(option.ValidationRegex)
		if err != nil {
			return fmt.Errorf("config: could not compile option.ValidationRegex: %w", err)
		}
	}

	if option.DefaultValue != nil {
		if _, err := validateValue(option, option.DefaultValue); err != nil {
			return fmt.Errorf("config: invalid default value for %s: %w", option.Key, err)
		}
	}

	optionsLock.Lock()
	existing, ok := options[option.Key]
	if ok {
		existing.Lock()
		option.activeValue = existing.activeValue
		option.activeDefaultValue = existing.activeDefaultValue
		existing.Unlock()
	}
	options[option.Key] = option
	optionsLock.Unlock()

	signalChanges()
	return nil
}

// GetOption returns the option with the given key.
func GetOption(key string) (*Option, error) {
	optionsLock.RLock()
	defer optionsLock.RUnlock()

	option, ok := options[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOptionNotFound, key)
	}
	return option, nil
}
