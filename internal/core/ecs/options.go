package ecs

// Options is a property map: a kind's defaults, construction overrides, or a
// component snapshot.
type Options map[string]any

func deepCopyOptions(o Options) Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = deepCopy(v)
	}
	return out
}

// deepCopy clones the container shapes that show up in schemas: nested maps and
// slices. Everything else is copied by value.
func deepCopy(v any) any {
	switch t := v.(type) {
	case Options:
		return deepCopyOptions(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
