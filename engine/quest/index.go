package quest

import "github.com/nathoo/parley/types"

type reqKey struct {
	kind   types.RequirementKind
	target string
}

// index maps a requirement key to the active quests interested in it, in the
// order they subscribed. Quests subscribe on start and leave on completion.
type index struct {
	subs map[reqKey][]string
}

func newIndex() *index {
	return &index{subs: map[reqKey][]string{}}
}

func (ix *index) add(q *types.Quest) {
	for _, r := range q.Requirements {
		k := reqKey{kind: r.Kind, target: r.TargetID}
		if contains(ix.subs[k], q.ID) {
			continue
		}
		ix.subs[k] = append(ix.subs[k], q.ID)
	}
}

func (ix *index) remove(q *types.Quest) {
	for _, r := range q.Requirements {
		k := reqKey{kind: r.Kind, target: r.TargetID}
		ids := removeID(ix.subs[k], q.ID)
		if len(ids) == 0 {
			delete(ix.subs, k)
			continue
		}
		ix.subs[k] = ids
	}
}

// lookup returns a copy so callers may complete quests while iterating.
func (ix *index) lookup(kind types.RequirementKind, target string) []string {
	ids := ix.subs[reqKey{kind: kind, target: target}]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func (ix *index) size() int { return len(ix.subs) }

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
