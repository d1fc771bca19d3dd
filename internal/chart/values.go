package chart

import (
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"
)

// ParseValues unmarshals a chart's values.yaml body into a generic map,
// using sigs.k8s.io/yaml the same way the teacher's pkg/kubernetes
// marshal() helper does for round-tripping Kubernetes YAML.
func ParseValues(body []byte) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := yaml.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to parse values YAML: %w", err)
	}
	return m, nil
}

// splitDottedOverridePath splits a helm --set-style dotted key, honoring
// backslash-escaped dots the same way the inline overrides themselves are
// encoded (spec §3, chart descriptor: "dotted paths, escapes preserved").
func splitDottedOverridePath(path string) []string {
	var segments []string
	var cur strings.Builder
	escaped := false
	for _, r := range path {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '.':
			segments = append(segments, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	segments = append(segments, cur.String())
	return segments
}

// keyExists reports whether the dotted path exists somewhere in values,
// regardless of the value found there (a leaf, a map, or a list index is
// all considered "existing").
func keyExists(values map[string]interface{}, path string) bool {
	segments := splitDottedOverridePath(path)
	var cur interface{} = values
	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return false
		}
		v, ok := m[seg]
		if !ok {
			return false
		}
		cur = v
	}
	return true
}

// OverridesSubsetOfValues implements the generic unit test required of
// every chart descriptor in spec §4.2 / §8: every inline override key must
// already exist in the descriptor's values file. It returns the first
// missing key's error, or nil if every key is present.
func OverridesSubsetOfValues(values map[string]interface{}, overrides map[string]string) error {
	for k := range overrides {
		if !keyExists(values, k) {
			return fmt.Errorf("override key %q not found in values file", k)
		}
	}
	return nil
}
