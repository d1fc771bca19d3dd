package helmcli

import "strings"

// setDottedPath sets dest[k1][k2]...[kn] = value, creating intermediate
// maps as needed, splitting path on unescaped dots ("." escaped as "\.").
// This mirrors helm's own `--set key.subkey=value` override syntax, which
// is what the chart descriptor's inline-override keys in spec §4.2 are
// expressed in.
func setDottedPath(dest map[string]interface{}, path string, value string) error {
	segments := splitDottedPath(path)
	cur := dest
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return nil
		}
		next, ok := cur[seg]
		if !ok {
			m := map[string]interface{}{}
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]interface{})
		if !ok {
			m = map[string]interface{}{}
			cur[seg] = m
		}
		cur = m
	}
	return nil
}

func splitDottedPath(path string) []string {
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
