package backend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RenderLines flattens an arbitrary command reply into display lines.
// Nested arrays and maps are indented; nil renders as the classic
// "(nil)"; a bare OK status passes through unchanged.
func RenderLines(v any) []string {
	var out []string
	renderInto(&out, v, 0)
	return out
}

// RenderValue is RenderLines joined for single-string consumers.
func RenderValue(v any) string {
	return strings.Join(RenderLines(v), "\n")
}

func renderInto(out *[]string, v any, depth int) {
	pad := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case nil:
		*out = append(*out, pad+"(nil)")
	case string:
		*out = append(*out, pad+t)
	case []byte:
		*out = append(*out, pad+string(t))
	case int64:
		*out = append(*out, pad+"(integer) "+strconv.FormatInt(t, 10))
	case int:
		*out = append(*out, pad+"(integer) "+strconv.Itoa(t))
	case float64:
		*out = append(*out, pad+"(double) "+strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		if t {
			*out = append(*out, pad+"(integer) 1")
		} else {
			*out = append(*out, pad+"(integer) 0")
		}
	case error:
		*out = append(*out, pad+"(error) "+t.Error())
	case []any:
		if len(t) == 0 {
			*out = append(*out, pad+"(empty array)")
			return
		}
		for i, item := range t {
			prefix := fmt.Sprintf("%s%d) ", pad, i+1)
			sub := RenderLines(item)
			for j, line := range sub {
				if j == 0 {
					*out = append(*out, prefix+strings.TrimLeft(line, " "))
				} else {
					*out = append(*out, pad+"   "+line)
				}
			}
		}
	case map[any]any:
		if len(t) == 0 {
			*out = append(*out, pad+"(empty map)")
			return
		}
		keys := make([]string, 0, len(t))
		byKey := make(map[string]any, len(t))
		for k, val := range t {
			ks := fmt.Sprint(k)
			keys = append(keys, ks)
			byKey[ks] = val
		}
		sort.Strings(keys)
		for _, k := range keys {
			*out = append(*out, pad+k+":")
			renderInto(out, byKey[k], depth+1)
		}
	case map[string]string:
		if len(t) == 0 {
			*out = append(*out, pad+"(empty map)")
			return
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			*out = append(*out, pad+k+": "+t[k])
		}
	default:
		*out = append(*out, pad+fmt.Sprint(t))
	}
}
