package config

import (
	"regexp"
	"sync"
)

// Variable Type IDs for frontend Identification.
const (
	OptTypeString uint8 = 1
	OptTypeInt    uint8 = 3
	OptTypeBool   uint8 = 4

	ExpertiseLevelUser      uint8 = 1
	ExpertiseLevelExpert    uint8 = 2
	ExpertiseLevelDeveloper uint8 = 3
)

func getTypeName(t uint8) string {
	switch t {
	case OptTypeString:
		return "string"
	case OptTypeInt:
		return "int"
	case OptTypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Option describes a configuration option.
type Option struct {
	sync.Mutex

	Name            string
	Key             string // category/sub/key
	Description     string
	ExpertiseLevel  uint8
	OptType         uint8
	DefaultValue    interface{}
	ValidationRegex string

	compiledRegex      *regexp.Regexp
	activeValue        *valueCache
	activeDefaultValue *valueCache
}

func (opt *Option) activeData() interface{} {
	if opt.activeValue != nil {
		return opt.activeValue.getData(opt)
	}
	if opt.activeDefaultValue != nil {
		return opt.activeDefaultValue.getData(opt)
	}
	return opt.DefaultValue
}
