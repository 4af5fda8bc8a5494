package resolver

// installOrder computes a topological order over the resolved set via
// depth-first post-order traversal: every dependency precedes its
// dependents. Roots are visited in resolution order, so ties among
// independent subtrees follow first-resolved-first-visited order and the
// result is deterministic for a fixed run.
//
// Cycles were already rejected during resolution, so the traversal always
// terminates.
func (st *resolution) installOrder() []string {
	graph := st.dependencyGraph()
	visited := make(map[string]bool, len(st.order))
	order := make([]string, 0, len(st.order))

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range graph[name] {
			visit(dep)
		}
		order = append(order, name)
	}

	for _, name := range st.order {
		visit(name)
	}
	return order
}

// dependencyGraph builds edges between resolved names. An edge n -> d exists
// iff d is a non-optional declared dependency of n's chosen version and d
// itself was resolved; edges to unresolved names are dropped.
func (st *resolution) dependencyGraph() map[string][]string {
	graph := make(map[string][]string, len(st.order))
	for _, name := range st.order {
		var edges []string
		for _, dep := range st.resolved[name].Dependencies {
			if dep.Optional {
				continue
			}
			if _, ok := st.resolved[dep.Name]; ok {
				edges = append(edges, dep.Name)
			}
		}
		graph[name] = edges
	}
	return graph
}
