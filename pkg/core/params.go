package core

import (
	"maps"
	"reflect"
)

// QueryCommand is the rendered statement plus its merged bind parameters.
type QueryCommand struct {
	CommandText string
	Parameters  map[string]any
}

// MergeParameters copies src into dst. Identical name/value pairs are
// deduplicated; a name bound to unequal values is a *ParameterConflictError
// and leaves dst partially merged.
func MergeParameters(dst, src map[string]any) error {
	for name, value := range src {
		if err := mergeParameter(dst, name, value); err != nil {
			return err
		}
	}
	return nil
}

func mergeParameter(dst map[string]any, name string, value any) error {
	if existing, ok := dst[name]; ok {
		if !reflect.DeepEqual(existing, value) {
			return &ParameterConflictError{Name: name, Existing: existing, Incoming: value}
		}
		return nil
	}
	dst[name] = value
	return nil
}

// CollectParameters merges the parameters of q, every query nested inside it
// (sub-queries, common tables) and every query of its set-operator chain.
func CollectParameters(q Query) (map[string]any, error) {
	result := make(map[string]any)
	var err error
	Walk(q, func(n any) bool {
		if err != nil {
			return false
		}
		if nested, ok := n.(Query); ok {
			err = MergeParameters(result, nested.Base().Parameters)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetParameters returns a copy of the query's own parameters.
func (b *QueryBase) GetParameters() map[string]any {
	return maps.Clone(b.Parameters)
}
