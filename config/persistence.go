package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
)

// LoadFile reads a config file and applies it as the user config. Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	newValues, err := JSONToMap(data)
	if err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return setConfig(newValues)
}

// JSONToMap parses and flattens a hierarchical json object.
func JSONToMap(jsonData []byte) (map[string]interface{}, error) {
	loaded := make(map[string]interface{})
	err := json.Unmarshal(jsonData, &loaded)
	if err != nil {
		return nil, err
	}

	flatten(loaded, loaded, "")
	return loaded, nil
}

func flatten(rootMap, subMap map[string]interface{}, subKey string) {
	for key, entry := range subMap {

		// get next level key
		subbedKey := key
		if subKey != "" {
			subbedKey = fmt.Sprintf("%s/%s", subKey, key)
		}

		// check for next subMap
		nextSub, ok := entry.(map[string]interface{})
		if ok {
			flatten(rootMap, nextSub, subbedKey)
			delete(rootMap, key)
		} else if subKey != "" {
			// only set if not on root level
			rootMap[subbedKey] = entry
		}
	}
}
