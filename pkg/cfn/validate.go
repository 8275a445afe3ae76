package cfn

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"go.uber.org/zap"
)

// subVarRegexp matches ${Name} and ${Resource.Attribute} in Fn::Sub strings. Literal ${!Name}
// sequences are skipped.
var subVarRegexp = regexp.MustCompile(`\$\{([^!}][^}]*)\}`)

type reference struct {
	from string
	kind string
	name string
	// owner is the resource the reference appears in, empty outside of Resources
	owner string
}

// Validate checks that every reference in the template resolves to a declared parameter,
// resource, condition, mapping or pseudo parameter and that resource dependencies are acyclic.
func (t *Template) Validate() error {
	_, err := t.DependencyGraph()
	return err
}

// DependencyGraph validates the template and returns its resource dependency graph. Edges run
// from a resource to the resources that depend on it so a topological sort yields creation order.
func (t *Template) DependencyGraph() (graph.Graph[string, string], error) {
	doc, err := t.Generic()
	if err != nil {
		return nil, err
	}

	var refs []reference
	for _, section := range []string{"Conditions", "Resources", "Outputs"} {
		entries, _ := doc[section].(map[string]any)
		for _, name := range sortedKeys(entries) {
			owner := ""
			if section == "Resources" {
				owner = name
			}
			from := section + "." + name
			refs = collectRefs(refs, from, owner, entries[name])
			if section == "Resources" {
				if entry, ok := entries[name].(map[string]any); ok {
					deps, _ := entry["DependsOn"].([]any)
					for _, d := range deps {
						if s, ok := d.(string); ok {
							refs = append(refs, reference{from: from, kind: "DependsOn", name: s, owner: owner})
						}
					}
				}
			}
		}
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, id := range t.ResourceIDs() {
		if err := g.AddVertex(id); err != nil {
			return nil, err
		}
	}

	for _, ref := range refs {
		if err := t.checkRef(ref); err != nil {
			return nil, err
		}
		if ref.owner == "" {
			continue
		}
		target := ref.name
		if ref.kind == "Fn::GetAtt" || ref.kind == "Fn::Sub" {
			target, _, _ = strings.Cut(ref.name, ".")
		}
		if _, isResource := t.Resources[target]; !isResource {
			continue
		}
		err := g.AddEdge(target, ref.owner)
		switch {
		case errors.Is(err, graph.ErrEdgeAlreadyExists):
		case errors.Is(err, graph.ErrEdgeCreatesCycle):
			return nil, fmt.Errorf("%s: %s %s creates a dependency cycle: %w", ref.from, ref.kind, ref.name, err)
		case err != nil:
			return nil, err
		}
	}
	zap.L().Debug("Validated template", zap.Int("resources", len(t.Resources)), zap.Int("references", len(refs)))
	return g, nil
}

// CreationOrder returns the resource ids such that every resource comes after the resources
// it references. Ties are broken alphabetically.
func (t *Template) CreationOrder() ([]string, error) {
	g, err := t.DependencyGraph()
	if err != nil {
		return nil, err
	}
	return graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
}

func (t *Template) checkRef(ref reference) error {
	missing := &ReferenceError{From: ref.from, Kind: ref.kind, Name: ref.name}
	switch ref.kind {
	case "Ref":
		if IsPseudoParameter(ref.name) {
			return nil
		}
		if _, ok := t.Parameters[ref.name]; ok {
			return nil
		}
		if _, ok := t.Resources[ref.name]; ok {
			return nil
		}
		return missing

	case "Fn::GetAtt", "DependsOn":
		name, _, _ := strings.Cut(ref.name, ".")
		if _, ok := t.Resources[name]; ok {
			return nil
		}
		return missing

	case "Fn::Sub":
		if strings.Contains(ref.name, ".") {
			return t.checkRef(reference{from: ref.from, kind: "Fn::GetAtt", name: ref.name})
		}
		if err := t.checkRef(reference{from: ref.from, kind: "Ref", name: ref.name}); err != nil {
			return missing
		}
		return nil

	case "Condition":
		if _, ok := t.Conditions[ref.name]; ok {
			return nil
		}
		return missing

	case "Fn::FindInMap":
		if _, ok := t.Mappings[ref.name]; ok {
			return nil
		}
		return missing
	}
	return fmt.Errorf("%s: unknown reference kind %s", ref.from, ref.kind)
}

// collectRefs walks a decoded template value collecting every reference it contains.
func collectRefs(refs []reference, from, owner string, v any) []reference {
	switch v := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			val := v[k]
			switch k {
			case "Ref":
				if s, ok := val.(string); ok {
					refs = append(refs, reference{from: from, kind: "Ref", name: s, owner: owner})
					continue
				}
			case "Condition":
				if s, ok := val.(string); ok {
					refs = append(refs, reference{from: from, kind: "Condition", name: s, owner: ""})
					continue
				}
			case "Fn::GetAtt":
				switch att := val.(type) {
				case []any:
					if len(att) == 2 {
						res, _ := att[0].(string)
						name, _ := att[1].(string)
						refs = append(refs, reference{from: from, kind: "Fn::GetAtt", name: res + "." + name, owner: owner})
						continue
					}
				case string:
					refs = append(refs, reference{from: from, kind: "Fn::GetAtt", name: att, owner: owner})
					continue
				}
			case "Fn::If":
				if args, ok := val.([]any); ok && len(args) == 3 {
					if cond, ok := args[0].(string); ok {
						refs = append(refs, reference{from: from, kind: "Condition", name: cond})
					}
					refs = collectRefs(refs, from, owner, args[1:])
					continue
				}
			case "Fn::FindInMap":
				if args, ok := val.([]any); ok && len(args) == 3 {
					if m, ok := args[0].(string); ok {
						refs = append(refs, reference{from: from, kind: "Fn::FindInMap", name: m})
					}
					refs = collectRefs(refs, from, owner, args[1:])
					continue
				}
			case "Fn::Sub":
				switch sub := val.(type) {
				case string:
					refs = appendSubRefs(refs, from, owner, sub, nil)
					continue
				case []any:
					if len(sub) == 2 {
						body, _ := sub[0].(string)
						vars, _ := sub[1].(map[string]any)
						refs = appendSubRefs(refs, from, owner, body, vars)
						refs = collectRefs(refs, from, owner, vars)
						continue
					}
				}
			}
			refs = collectRefs(refs, from, owner, val)
		}
	case []any:
		for _, item := range v {
			refs = collectRefs(refs, from, owner, item)
		}
	}
	return refs
}

func appendSubRefs(refs []reference, from, owner, body string, vars map[string]any) []reference {
	for _, m := range subVarRegexp.FindAllStringSubmatch(body, -1) {
		name := strings.TrimSpace(m[1])
		if _, ok := vars[name]; ok {
			continue
		}
		refs = append(refs, reference{from: from, kind: "Fn::Sub", name: name, owner: owner})
	}
	return refs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
