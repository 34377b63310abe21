package engine

import "fmt"

// FanOut is a compiled parallel edge: run Branches concurrently, merge
// their updates in declaration order, continue at Join.
type FanOut struct {
	EdgeID   string
	Branches []string
	Join     string
}

// Route is a compiled conditional edge: evaluate the named router against
// the merged state, follow the mapped target.
type Route struct {
	EdgeID string
	Router string
	Routes map[string]string
}

// Graph is the compiled topology. Each node has at most one outgoing
// transition; a node with none is terminal (the walk completes there).
type Graph struct {
	Name  string
	Start string
	Done  string

	nodes   map[string]bool
	next    map[string]string // unconditional from -> to (edge id in nextID)
	nextID  map[string]string
	fanOuts map[string]FanOut
	routes  map[string]Route
}

// BuildGraph compiles a validated PipelineDef.
func BuildGraph(def *PipelineDef) (*Graph, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	g := &Graph{
		Name:    def.Pipeline,
		Start:   def.Start,
		Done:    def.Done,
		nodes:   make(map[string]bool, len(def.Nodes)),
		next:    make(map[string]string),
		nextID:  make(map[string]string),
		fanOuts: make(map[string]FanOut),
		routes:  make(map[string]Route),
	}
	for _, n := range def.Nodes {
		g.nodes[n.Name] = true
	}
	for _, e := range def.Edges {
		switch {
		case e.To != "":
			g.next[e.From] = e.To
			g.nextID[e.From] = e.ID
		case len(e.Parallel) > 0:
			g.fanOuts[e.From] = FanOut{EdgeID: e.ID, Branches: e.Parallel, Join: e.Join}
		case e.Router != "":
			g.routes[e.From] = Route{EdgeID: e.ID, Router: e.Router, Routes: e.Routes}
		}
	}
	return g, nil
}

// HasNode reports whether name is a declared node.
func (g *Graph) HasNode(name string) bool { return g.nodes[name] }

// NextOf returns the unconditional successor of a node, if any.
func (g *Graph) NextOf(name string) (string, bool) {
	to, ok := g.next[name]
	return to, ok
}

// FanOutOf returns the fan-out group rooted at a node, if any.
func (g *Graph) FanOutOf(name string) (FanOut, bool) {
	fo, ok := g.fanOuts[name]
	return fo, ok
}

// RouteOf returns the conditional edge rooted at a node, if any.
func (g *Graph) RouteOf(name string) (Route, bool) {
	r, ok := g.routes[name]
	return r, ok
}

// RouterNames returns the router names referenced by the graph.
func (g *Graph) RouterNames() []string {
	names := make([]string, 0, len(g.routes))
	for _, r := range g.routes {
		names = append(names, r.Router)
	}
	return names
}
