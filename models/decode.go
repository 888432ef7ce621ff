package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
)

// Decode copies data onto the struct pointed to by out. Keys are matched
// against field names either as given or converted from snake_case, so
// "original_name" sets OriginalName. Embedded structs such as BaseModel are
// flattened and nested maps fill nested structs.
func Decode(data map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		MatchName: func(mapKey, fieldName string) bool {
			return strings.EqualFold(mapKey, fieldName) ||
				strings.EqualFold(strcase.ToCamel(mapKey), fieldName)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("failed to decode %T: %w", out, err)
	}
	return nil
}

// BaseDetailer is implemented by models embedding BaseModel
type BaseDetailer interface {
	BaseDetails() map[string]any
}

// Apply copies every key of data onto obj, validation being the caller's
// job, and returns the base details merged with data. Nothing is written
// to the database.
func Apply(obj BaseDetailer, data map[string]any) (map[string]any, error) {
	if err := Decode(data, obj); err != nil {
		return nil, err
	}

	merged := obj.BaseDetails()
	for k, v := range data {
		merged[k] = v
	}
	return merged, nil
}
