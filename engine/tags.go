package engine

// TagID identifies a Tag. Tags form a shared, reference-counted tree;
// the parent relation is acyclic by invariant (enforced by the caller at
// ingress, not by this package).
type TagID string

// Tag is a node in the tag tree. ParentID is nil at the root.
type Tag struct {
	ID          TagID
	Name        string
	ParentID    *TagID
	Description string
}

// TagSet holds the full tag tree by id, as loaded by the boundary
// collaborator. tagExpander below looks tags up here.
type TagSet map[TagID]Tag

// tagExpander walks parent chains and unions the result, deduplicating
// by tag id. It memoizes the walk per tag id for as long as the
// tagExpander lives. The Expander and LedgerMerge build a new one for
// each schedule, income and instance, so a walk is not shared between
// schedules that carry the same tags. The cache is call-scoped rather
// than a package-level map: nothing in this package holds state across
// calls.
type tagExpander struct {
	tags  TagSet
	cache map[TagID][]TagID
}

func newTagExpander(tags TagSet) *tagExpander {
	return &tagExpander{tags: tags, cache: make(map[TagID][]TagID)}
}

// expand returns the union of a tag and all of its ancestors, for each
// tag in ids, deduplicated by id and order-stable on first occurrence.
func (te *tagExpander) expand(ids []TagID) []TagID {
	seen := make(map[TagID]bool)
	var out []TagID
	for _, id := range ids {
		for _, expanded := range te.expandOne(id) {
			if !seen[expanded] {
				seen[expanded] = true
				out = append(out, expanded)
			}
		}
	}
	return out
}

func (te *tagExpander) expandOne(id TagID) []TagID {
	if cached, ok := te.cache[id]; ok {
		return cached
	}
	var chain []TagID
	cur := id
	visited := make(map[TagID]bool)
	for {
		if visited[cur] {
			break // acyclic by invariant; guard against bad input anyway
		}
		visited[cur] = true
		chain = append(chain, cur)
		tag, ok := te.tags[cur]
		if !ok || tag.ParentID == nil {
			break
		}
		cur = *tag.ParentID
	}
	te.cache[id] = chain
	return chain
}
