package templatediff

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mhahn/stacker-blueprints/pkg/cfn"
	"github.com/r3labs/diff"
)

type (
	Change struct {
		Type string
		Path string
		From any
		To   any
	}

	Changes []Change
)

var (
	createColor = color.New(color.FgGreen)
	deleteColor = color.New(color.FgRed)
	updateColor = color.New(color.FgYellow)
)

// Documents compares two rendered templates, JSON or YAML. Order of list elements is ignored.
func Documents(old, updated []byte) (Changes, error) {
	var before, after map[string]any
	var err error
	if len(old) > 0 {
		if before, err = cfn.Decode(old); err != nil {
			return nil, err
		}
	}
	if after, err = cfn.Decode(updated); err != nil {
		return nil, err
	}
	return Generic(before, after)
}

func Generic(before, after map[string]any) (Changes, error) {
	if before == nil {
		before = map[string]any{}
	}
	if after == nil {
		after = map[string]any{}
	}
	differ, err := diff.NewDiffer(diff.SliceOrdering(false))
	if err != nil {
		return nil, err
	}
	changelog, err := differ.Diff(before, after)
	if err != nil {
		return nil, err
	}
	changes := make(Changes, len(changelog))
	for i, c := range changelog {
		changes[i] = Change{Type: c.Type, Path: strings.Join(c.Path, "."), From: c.From, To: c.To}
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes, nil
}

func (c Change) String() string {
	switch c.Type {
	case diff.CREATE:
		return fmt.Sprintf("+ %s: %v", c.Path, c.To)
	case diff.DELETE:
		return fmt.Sprintf("- %s: %v", c.Path, c.From)
	default:
		return fmt.Sprintf("~ %s: %v -> %v", c.Path, c.From, c.To)
	}
}

// Print writes one colored line per change. Colors follow fatih/color's terminal detection.
func (cs Changes) Print(w io.Writer) error {
	for _, c := range cs {
		col := updateColor
		switch c.Type {
		case diff.CREATE:
			col = createColor
		case diff.DELETE:
			col = deleteColor
		}
		if _, err := col.Fprintln(w, c.String()); err != nil {
			return err
		}
	}
	return nil
}
