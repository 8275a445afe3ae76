package dot

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"go.uber.org/multierr"
)

// Cluster is a graph drawn as a labelled box. Vertex ids are prefixed with the cluster name so
// that clusters may share ids.
type Cluster struct {
	Name  string
	Graph graph.Graph[string, string]
	// Order lists the vertices in the order they are written. Vertices missing from it follow
	// sorted by id.
	Order []string
	// Attributes returns extra attributes of a vertex, may be nil.
	Attributes func(id string) map[string]string
}

// WriteDigraph writes the clusters as a single DOT digraph.
func WriteDigraph(out io.Writer, name string, clusters ...Cluster) error {
	var errs error
	printf := func(s string, args ...any) {
		_, err := fmt.Fprintf(out, s, args...)
		errs = multierr.Append(errs, err)
	}

	printf("digraph %q {\n  rankdir = LR\n", name)
	for _, c := range clusters {
		adj, err := c.Graph.AdjacencyMap()
		if err != nil {
			return err
		}
		ids := c.vertexOrder(adj)

		printf("  subgraph %q {\n    label = %q\n", "cluster_"+c.Name, c.Name)
		for _, id := range ids {
			attribs := map[string]string{"label": id, "shape": "box"}
			if c.Attributes != nil {
				for k, v := range c.Attributes(id) {
					attribs[k] = v
				}
			}
			printf("    %q%s;\n", c.Name+"/"+id, AttributesToString(attribs))
		}
		printf("  }\n")

		for _, src := range ids {
			targets := make([]string, 0, len(adj[src]))
			for target := range adj[src] {
				targets = append(targets, target)
			}
			sort.Strings(targets)
			for _, target := range targets {
				printf("  %q -> %q;\n", c.Name+"/"+src, c.Name+"/"+target)
			}
		}
	}
	printf("}\n")
	return errs
}

func (c Cluster) vertexOrder(adj map[string]map[string]graph.Edge[string]) []string {
	seen := make(map[string]bool, len(adj))
	var ids []string
	for _, id := range c.Order {
		if _, ok := adj[id]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	var rest []string
	for id := range adj {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

// AttributesToString formats attribs as a DOT attribute list with a leading space, keys sorted.
// Values wrapped in angle brackets are written unquoted as HTML labels.
func AttributesToString(attribs map[string]string) string {
	if len(attribs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attribs))
	for k := range attribs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := new(strings.Builder)
	b.WriteString(" [")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		v := attribs[k]
		if len(v) > 1 && strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
			fmt.Fprintf(b, "%s=%s", k, v)
		} else {
			fmt.Fprintf(b, "%s=%q", k, v)
		}
	}
	b.WriteString("]")
	return b.String()
}
