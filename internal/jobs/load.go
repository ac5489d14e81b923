package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads a requisition catalog from a YAML or JSON file. The document is either
// a list of requisitions or an object with a "jobs" list.
func Load(path string) (*Requisitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse jobs file %s: %w", path, err)
	}

	return Decode(raw)
}

// Decode converts a generic document into requisitions. IDs and pay may be given as
// numbers or strings, and skill fields may be lists.
func Decode(raw any) (*Requisitions, error) {
	if m, ok := raw.(map[string]any); ok {
		raw = m["jobs"]
	}
	if raw == nil {
		return &Requisitions{}, nil
	}

	var items []*Requisition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       joinListHook,
		Result:           &items,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode requisitions: %w", err)
	}

	for _, r := range items {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	return &Requisitions{Items: items}, nil
}

// joinListHook turns lists into comma separated text when the target field is a string.
func joinListHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || from.Kind() != reflect.Slice {
		return data, nil
	}

	items, ok := data.([]any)
	if !ok {
		return data, nil
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(fmt.Sprint(item))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", "), nil
}
