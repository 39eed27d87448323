package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// coerceToJSONBytes converts YAML config to JSON bytes so we can re-use the
// strict JSON decoder (DisallowUnknownFields) for both formats.
//
// Returns (jsonBytes, format, err) where format is "json" or "yaml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, "json", nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}

	if err := checkJSONCompatible(v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml: %w", err)
	}

	j, err := json.Marshal(v)
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// checkJSONCompatible walks the decoded YAML tree and rejects mappings with
// non-string keys. yaml/v3 decodes mappings as map[string]any and only falls
// back to map[any]any when a key is not a string; config keys are field names,
// so such a document is a mistake, not something to coerce.
func checkJSONCompatible(in any) error {
	switch x := in.(type) {
	case map[string]any:
		for _, v := range x {
			if err := checkJSONCompatible(v); err != nil {
				return err
			}
		}
	case map[any]any:
		for k := range x {
			if _, ok := k.(string); !ok {
				return fmt.Errorf("non-string mapping key %v", k)
			}
		}
		return fmt.Errorf("mapping with non-string keys")
	case []any:
		for _, v := range x {
			if err := checkJSONCompatible(v); err != nil {
				return err
			}
		}
	}
	return nil
}
