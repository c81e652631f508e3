// Package engine implements the commit-graph rewrite machinery: the subtree
// graft that rebases every branch descended from a commit, and the rebase
// maps that record which old commits were replaced by which new ones.
package engine

// RebaseMap records "this old commit now lives at this new commit" for one
// rewrite operation. Maps from sequential operations are chained by
// resolving through them to a fixed point.
type RebaseMap map[string]string

// Resolve chases sha through the map until it is no longer a key. A commit
// absent from the map is its own resolution. Entries never form a cycle:
// commits are monotonically replaced, never revisited.
func (m RebaseMap) Resolve(sha string) string {
	for {
		next, ok := m[sha]
		if !ok {
			return sha
		}
		sha = next
	}
}

// Merge combines an inherited map with a fresh one produced by a later
// operation. Every inherited value is chased through the fresh map so that
// each key points at its final replacement, then the fresh entries are added
// on top.
func Merge(inherited, fresh RebaseMap) RebaseMap {
	merged := make(RebaseMap, len(inherited)+len(fresh))
	for old, new := range inherited {
		merged[old] = fresh.Resolve(new)
	}
	for old, new := range fresh {
		merged[old] = new
	}
	return merged
}
