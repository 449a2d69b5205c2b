package accounts

import (
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// Rollup adds every account's own balance to all of its ancestors.
// The result holds an entry for each account in accs.
func Rollup(accs []*Account, balances map[id.ID]types.Money) map[id.ID]types.Money {
	parent := make(map[id.ID]id.ID, len(accs))
	out := make(map[id.ID]types.Money, len(accs))
	for _, a := range accs {
		out[a.ID] = types.Zero()
		if a.ParentID != nil {
			parent[a.ID] = *a.ParentID
		}
	}

	for _, a := range accs {
		own, ok := balances[a.ID]
		if !ok {
			continue
		}
		visited := map[id.ID]bool{}
		for cur, ok := a.ID, true; ok && !visited[cur]; cur, ok = parent[cur] {
			visited[cur] = true
			if _, known := out[cur]; known {
				out[cur] = out[cur].Add(own)
			}
		}
	}
	return out
}
