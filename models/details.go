package models

import (
	"errors"
	"fmt"
)

// DetailLevel selects how much of a model GetDetails returns. From least to
// most: INFO, BASIC, FULL, EXTRA.
type DetailLevel string

const (
	LevelInfo  DetailLevel = "INFO"
	LevelBasic DetailLevel = "BASIC"
	LevelFull  DetailLevel = "FULL"
	LevelExtra DetailLevel = "EXTRA"
)

var ErrDetailLevelNotImplemented = errors.New("detail level not implemented")

type InfoDetailer interface {
	Info() map[string]any
}

type BasicDetailer interface {
	BasicDetails() map[string]any
}

type FullDetailer interface {
	FullDetails() map[string]any
}

type ExtraDetailer interface {
	ExtraDetails() map[string]any
}

// ParseDetailLevel maps a query value onto a level, defaulting to INFO
func ParseDetailLevel(s string) DetailLevel {
	switch DetailLevel(s) {
	case LevelBasic, LevelFull, LevelExtra:
		return DetailLevel(s)
	default:
		return LevelInfo
	}
}

// GetDetails renders obj at level. EXTRA falls back to INFO for models
// without extra details, and unknown levels render INFO.
func GetDetails(obj any, level DetailLevel) (map[string]any, error) {
	switch level {
	case LevelBasic:
		if d, ok := obj.(BasicDetailer); ok {
			return d.BasicDetails(), nil
		}
		return nil, fmt.Errorf("%T %s: %w", obj, level, ErrDetailLevelNotImplemented)
	case LevelFull:
		if d, ok := obj.(FullDetailer); ok {
			return d.FullDetails(), nil
		}
		return nil, fmt.Errorf("%T %s: %w", obj, level, ErrDetailLevelNotImplemented)
	case LevelExtra:
		if d, ok := obj.(ExtraDetailer); ok {
			return d.ExtraDetails(), nil
		}
	}

	if d, ok := obj.(InfoDetailer); ok {
		return d.Info(), nil
	}
	return nil, fmt.Errorf("%T %s: %w", obj, LevelInfo, ErrDetailLevelNotImplemented)
}

// GetObjectsDetails renders every object at level
func GetObjectsDetails[T any](objects []T, level DetailLevel) ([]map[string]any, error) {
	details := make([]map[string]any, 0, len(objects))
	for _, obj := range objects {
		d, err := GetDetails(obj, level)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}
