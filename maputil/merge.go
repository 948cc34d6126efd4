// Package maputil provides utilities for working with map[string]any
// configuration data: deep merging, deep copying, and typed value access.
package maputil

// Merge folds src into dst in place. Nested maps merge key by key; every
// other value kind, slices included, is replaced wholesale. Replacement
// values are deep copies, so dst never aliases src.
func Merge(dst, src map[string]any) {
	for key, srcValue := range src {
		dstValue, exists := dst[key]

		if !exists {
			dst[key] = DeepCopyValue(srcValue)
			continue
		}

		dstMap, dstIsMap := dstValue.(map[string]any)
		srcMap, srcIsMap := srcValue.(map[string]any)

		if dstIsMap && srcIsMap {
			Merge(dstMap, srcMap)
			continue
		}

		// Kind mismatch or scalar on either side: src wins outright.
		dst[key] = DeepCopyValue(srcValue)
	}
}

// MergeAll folds the given layers into a fresh map, from lowest to highest
// precedence. Keys in later layers overwrite keys in earlier ones; keys
// unique to any layer are unioned into the result. Nil layers are skipped.
//
// The merge order is the single source of truth for precedence: callers
// express "which layer wins" purely by argument position.
//
// Example:
//
//	merged := maputil.MergeAll(defaults, siteConfig, overrides)
func MergeAll(layers ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, l := range layers {
		if l == nil {
			continue
		}
		Merge(merged, l)
	}
	return merged
}

// DeepCopyMap returns a copy of src with nested maps and slices copied
// recursively. A nil map copies to nil.
func DeepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = DeepCopyValue(v)
	}
	return dst
}

// DeepCopySlice returns a copy of src with nested maps and slices copied
// recursively. A nil slice copies to nil.
func DeepCopySlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, v := range src {
		dst[i] = DeepCopyValue(v)
	}
	return dst
}

// DeepCopyValue copies v. Only map[string]any and []any carry mutable
// structure after decoding, so everything else passes through unchanged.
func DeepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		return DeepCopySlice(val)
	default:
		return v
	}
}
