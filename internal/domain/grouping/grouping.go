// Package grouping folds ordered row sets into per-key runs.
package grouping

// Group is one run of rows sharing a key, in input order.
type Group[K comparable, T any] struct {
	Key  K
	Rows []T
}

// By splits rows into consecutive runs of equal key.
//
// Precondition: rows are already ordered by key (the storage query's ORDER BY
// guarantees this). By never re-sorts; rows with the same key at non-adjacent
// positions end up in separate groups. Use Sorted to check the precondition.
func By[K comparable, T any](rows []T, key func(T) K) []Group[K, T] {
	var groups []Group[K, T]
	for _, row := range rows {
		k := key(row)
		if n := len(groups); n > 0 && groups[n-1].Key == k {
			groups[n-1].Rows = append(groups[n-1].Rows, row)
			continue
		}
		groups = append(groups, Group[K, T]{Key: k, Rows: []T{row}})
	}
	return groups
}

// Sorted reports whether every key appears in a single contiguous run,
// i.e. whether By will produce one group per distinct key.
func Sorted[K comparable, T any](rows []T, key func(T) K) bool {
	seen := make(map[K]struct{})
	for i, row := range rows {
		k := key(row)
		if i > 0 && key(rows[i-1]) == k {
			continue
		}
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}
