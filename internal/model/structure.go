package model

import "github.com/rotisserie/eris"

// ValidateStructure checks the base-model global invariants from spec §3.1
// that do not depend on time-series fusion: name uniqueness within each
// entity type, disjoint node/process namespaces, cross-reference
// resolution (groups, markets), and the topology self-loop rule.
// Temporal invariants (3, 4) are checked separately by
// CheckTimeSeriesAgainstTemporals once the model has been expanded and
// fused.
func (b BaseInputData) ValidateStructure() error {
	for name, n := range b.Nodes {
		if name == "" || n.Name != name {
			return eris.Errorf("node key %q does not match node name %q", name, n.Name)
		}
	}
	for name, p := range b.Processes {
		if name == "" || p.Name != name {
			return eris.Errorf("process key %q does not match process name %q", name, p.Name)
		}
		if _, clash := b.Nodes[name]; clash {
			return eris.Errorf("node and process namespaces must be disjoint, %q used by both", name)
		}
		for _, topo := range p.Topos {
			if topo.Source == topo.Sink && topo.Source != name {
				return eris.Errorf("process %q topology is a self-loop on %q that is not the owning process", name, topo.Source)
			}
			if topo.Source != name && topo.Sink != name {
				return eris.Errorf("process %q topology %s->%s does not touch the owning process", name, topo.Source, topo.Sink)
			}
		}
	}
	for gname, g := range b.Groups {
		if gname == "" || g.Name != gname {
			return eris.Errorf("group key %q does not match group name %q", gname, g.Name)
		}
		for _, member := range g.Members {
			switch g.GType {
			case GroupTypeNode:
				if _, ok := b.Nodes[member]; !ok {
					return eris.Errorf("group %q references unknown node %q", gname, member)
				}
			case GroupTypeProcess:
				if _, ok := b.Processes[member]; !ok {
					return eris.Errorf("group %q references unknown process %q", gname, member)
				}
			default:
				return eris.Errorf("group %q has unknown group type %q", gname, g.GType)
			}
		}
	}
	for mname, m := range b.Markets {
		if mname == "" || m.Name != mname {
			return eris.Errorf("market key %q does not match market name %q", mname, m.Name)
		}
		if _, ok := b.Nodes[m.Node]; !ok {
			return eris.Errorf("market %q references unknown node %q", mname, m.Node)
		}
	}
	for _, d := range b.NodeDiffusion {
		if d.Node1 == d.Node2 {
			return eris.Errorf("node diffusion %s->%s must not be a self-loop", d.Node1, d.Node2)
		}
		if _, ok := b.Nodes[d.Node1]; !ok {
			return eris.Errorf("node diffusion references unknown node %q", d.Node1)
		}
		if _, ok := b.Nodes[d.Node2]; !ok {
			return eris.Errorf("node diffusion references unknown node %q", d.Node2)
		}
	}
	seenDelay := make(map[[2]string]bool, len(b.NodeDelay))
	for _, d := range b.NodeDelay {
		key := [2]string{d.Node1, d.Node2}
		if seenDelay[key] {
			return eris.Errorf("duplicate node delay %s->%s", d.Node1, d.Node2)
		}
		seenDelay[key] = true
		if d.MinFlow > d.MaxFlow {
			return eris.Errorf("node delay %s->%s has min_flow greater than max_flow", d.Node1, d.Node2)
		}
	}
	for cname, gc := range b.GenConstraints {
		if cname == "" || gc.Name != cname {
			return eris.Errorf("constraint key %q does not match constraint name %q", cname, gc.Name)
		}
		for _, f := range gc.Factors {
			switch f.VarType {
			case "v_flow", "v_state", "v_online":
			default:
				return eris.Errorf("constraint %q factor has unknown var_type %q", cname, f.VarType)
			}
		}
	}
	return nil
}
