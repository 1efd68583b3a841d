package chart

import (
	"context"
	"strconv"
	"strings"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// hierarchyGen draws sunburst and treemap charts from a categorical path
// and a numerical value column.
type hierarchyGen struct {
	kind Kind
}

func (g hierarchyGen) Kind() Kind { return g.kind }

type node struct {
	id     string
	label  string
	parent string
	value  float64
}

func (g hierarchyGen) Generate(ctx context.Context, in *Input) (*Spec, string, error) {
	if len(in.Mapping.Path) < 2 {
		return nil, "", errs.Validation(RolePath, "%s requires at least 2 categorical path columns, got %d", g.kind, len(in.Mapping.Path))
	}
	path := make([]*dataset.Column, len(in.Mapping.Path))
	for i, name := range in.Mapping.Path {
		c, _, err := resolveTyped(in, g.kind, RolePath, name, dataset.Categorical)
		if err != nil {
			return nil, "", err
		}
		path[i] = c
	}
	values, _, err := resolveTyped(in, g.kind, RoleValues, in.Mapping.Values, dataset.Numerical)
	if err != nil {
		return nil, "", err
	}

	// Accumulate sums for every prefix of the path; rows with a missing
	// level or value are dropped.
	nodes := map[string]*node{}
	var order []string
	var total float64
row:
	for r := 0; r < values.Len(); r++ {
		v, ok := values.Float(r)
		if !ok {
			continue
		}
		for _, c := range path {
			if c.IsMissing(r) {
				continue row
			}
		}
		parent := ""
		for _, c := range path {
			label := c.Text(r)
			id := nodeID(parent, label)
			n, seen := nodes[id]
			if !seen {
				n = &node{id: id, label: label, parent: parent}
				nodes[id] = n
				order = append(order, id)
			}
			n.value += v
			parent = id
		}
		total += v
	}
	if len(order) == 0 {
		return nil, "", errs.Precondition(append(names(path...), values.Name), "no rows have every path level and a value present")
	}
	if total == 0 {
		return nil, "", errs.Precondition([]string{values.Name}, "values sum to zero, so there are no shares to show")
	}

	s := Series{}
	var top *node
	for _, id := range order {
		n := nodes[id]
		s.IDs = append(s.IDs, n.id)
		s.Labels = append(s.Labels, n.label)
		s.Parents = append(s.Parents, n.parent)
		s.Values = append(s.Values, n.value)
		if n.parent == "" && (top == nil || n.value > top.value || (n.value == top.value && n.label < top.label)) {
			top = n
		}
	}
	pathNames := names(path...)
	spec := newSpec(g.kind, defaultTitle("%s by %s", values.Name, strings.Join(pathNames, " > ")))
	spec.Encoding[RolePath] = strings.Join(pathNames, ", ")
	spec.Encoding[RoleValues] = values.Name
	spec.Series = []Series{s}
	spec.Options["branchvalues"] = "total"

	var a analysis
	a.add("Hierarchical breakdown of '%s' by %s:", values.Name, strings.Join(pathNames, " > "))
	a.add("- Total '%s': %s", values.Name, num(total))
	a.add("- The largest top-level category in '%s' is '%s', accounting for %s of the total (%s).",
		path[0].Name, top.label, pct(top.value, total), num(top.value))
	return spec, a.String(), nil
}

// nodeID extends the parent id with a quoted label, so labels containing
// the separator cannot collide across levels.
func nodeID(parent, label string) string {
	id := strconv.Quote(label)
	if parent != "" {
		id = parent + "/" + id
	}
	return id
}
