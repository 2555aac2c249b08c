package cfg

// Dominators computes the dominator sets of every reachable block with the
// classic iterative data-flow algorithm: dom(entry) = {entry}, and for any
// other block dom(b) = {b} union the intersection of dom(p) over its
// reachable predecessors, iterated to a fixed point. Unreachable blocks
// get no entry.
func Dominators(g *Graph) map[BlockID]map[BlockID]bool {
	reachable := Reachable(g)
	preds := g.Preds()

	all := make([]BlockID, 0, len(reachable))
	for _, b := range g.Blocks {
		if reachable[b.ID] {
			all = append(all, b.ID)
		}
	}

	dom := make(map[BlockID]map[BlockID]bool, len(all))
	for _, id := range all {
		if id == g.Entry {
			dom[id] = map[BlockID]bool{id: true}
			continue
		}
		full := make(map[BlockID]bool, len(all))
		for _, other := range all {
			full[other] = true
		}
		dom[id] = full
	}

	changed := true
	for changed {
		changed = false
		for _, id := range all {
			if id == g.Entry {
				continue
			}

			next := make(map[BlockID]bool)
			first := true
			for _, p := range preds[id] {
				if !reachable[p] {
					continue
				}
				if first {
					for d := range dom[p] {
						next[d] = true
					}
					first = false
					continue
				}
				for d := range next {
					if !dom[p][d] {
						delete(next, d)
					}
				}
			}
			next[id] = true

			if !setsEqual(next, dom[id]) {
				dom[id] = next
				changed = true
			}
		}
	}
	return dom
}

func setsEqual(a, b map[BlockID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
