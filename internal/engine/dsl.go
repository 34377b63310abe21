// Package engine is a small state-machine runner for staged diagnostic
// pipelines: named nodes produce partial updates that a domain-owned
// reducer merges into an aggregate state. The topology (unconditional
// edges, fan-out/fan-in groups, conditional routers) is declared in YAML
// and compiled into a Graph. Suspension at a human-input boundary is
// checkpointed durably so a walk can resume in another process.
package engine

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PipelineDef is the YAML structure declaring a pipeline graph.
type PipelineDef struct {
	Pipeline    string    `yaml:"pipeline"`
	Description string    `yaml:"description,omitempty"`
	Nodes       []NodeDef `yaml:"nodes"`
	Edges       []EdgeDef `yaml:"edges"`
	Start       string    `yaml:"start"`
	Done        string    `yaml:"done"`
}

// NodeDef declares a node in the pipeline.
type NodeDef struct {
	Name string `yaml:"name"`
}

// EdgeDef declares one outgoing transition. Exactly one of To, Parallel, or
// Router must be set:
//   - To: unconditional edge.
//   - Parallel + Join: fan-out to concurrent branches, fan-in at Join.
//   - Router + Routes: conditional edge; the named router function is
//     evaluated against the merged state and its outcome is looked up in
//     Routes.
type EdgeDef struct {
	ID       string            `yaml:"id"`
	From     string            `yaml:"from"`
	To       string            `yaml:"to,omitempty"`
	Parallel []string          `yaml:"parallel,omitempty"`
	Join     string            `yaml:"join,omitempty"`
	Router   string            `yaml:"router,omitempty"`
	Routes   map[string]string `yaml:"routes,omitempty"`
}

// LoadPipeline parses a YAML pipeline definition.
func LoadPipeline(data []byte) (*PipelineDef, error) {
	var def PipelineDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse pipeline YAML: %w", err)
	}
	return &def, nil
}

// Validate checks referential integrity of the definition.
func (def *PipelineDef) Validate() error {
	if def.Pipeline == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(def.Nodes) == 0 {
		return fmt.Errorf("at least one node is required")
	}
	if def.Start == "" {
		return fmt.Errorf("start node is required")
	}
	if def.Done == "" {
		return fmt.Errorf("done node is required")
	}

	nodeSet := make(map[string]bool, len(def.Nodes))
	for _, n := range def.Nodes {
		if n.Name == "" {
			return fmt.Errorf("node name is required")
		}
		if nodeSet[n.Name] {
			return fmt.Errorf("duplicate node name %q", n.Name)
		}
		nodeSet[n.Name] = true
	}
	if !nodeSet[def.Start] {
		return fmt.Errorf("start node %q not found in node list", def.Start)
	}

	known := func(name string) bool { return name == def.Done || nodeSet[name] }

	edgeIDs := make(map[string]bool, len(def.Edges))
	fromSeen := make(map[string]bool, len(def.Edges))
	for _, e := range def.Edges {
		if e.ID == "" {
			return fmt.Errorf("edge id is required")
		}
		if edgeIDs[e.ID] {
			return fmt.Errorf("duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = true

		if !nodeSet[e.From] {
			return fmt.Errorf("edge %s references unknown source node %q", e.ID, e.From)
		}
		if fromSeen[e.From] {
			return fmt.Errorf("edge %s: node %q already has an outgoing edge", e.ID, e.From)
		}
		fromSeen[e.From] = true

		set := 0
		if e.To != "" {
			set++
			if !known(e.To) {
				return fmt.Errorf("edge %s references unknown target node %q", e.ID, e.To)
			}
		}
		if len(e.Parallel) > 0 {
			set++
			if len(e.Parallel) < 2 {
				return fmt.Errorf("edge %s: parallel needs at least two branches", e.ID)
			}
			if e.Join == "" || !nodeSet[e.Join] {
				return fmt.Errorf("edge %s: parallel requires a known join node", e.ID)
			}
			for _, b := range e.Parallel {
				if !nodeSet[b] {
					return fmt.Errorf("edge %s references unknown branch node %q", e.ID, b)
				}
			}
		}
		if e.Router != "" {
			set++
			if len(e.Routes) == 0 {
				return fmt.Errorf("edge %s: router requires routes", e.ID)
			}
			for outcome, target := range e.Routes {
				if !known(target) {
					return fmt.Errorf("edge %s: route %q targets unknown node %q", e.ID, outcome, target)
				}
			}
		}
		if set != 1 {
			return fmt.Errorf("edge %s: exactly one of to, parallel, or router must be set", e.ID)
		}
	}

	return nil
}
