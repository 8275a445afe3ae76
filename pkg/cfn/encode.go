package cfn

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"
)

// JSON encodes the template with two space indentation. HTML escaping is disabled since
// user data scripts routinely contain '&&' and redirects.
func (t *Template) JSON() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("could not encode template: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *Template) YAML() ([]byte, error) {
	j, err := t.JSON()
	if err != nil {
		return nil, err
	}
	y, err := yaml.JSONToYAML(j)
	if err != nil {
		return nil, fmt.Errorf("could not convert template to yaml: %w", err)
	}
	return y, nil
}

// Encode renders the template in the named format, "json" or "yaml".
func (t *Template) Encode(format string) ([]byte, error) {
	switch format {
	case "json", "":
		return t.JSON()
	case "yaml", "yml":
		return t.YAML()
	default:
		return nil, fmt.Errorf("unsupported template format %q", format)
	}
}

// Generic returns the template as decoded JSON: maps, slices and scalars only.
func (t *Template) Generic() (map[string]any, error) {
	j, err := t.JSON()
	if err != nil {
		return nil, err
	}
	return Decode(j)
}

// Decode parses a rendered template, JSON or YAML, into its generic form.
func Decode(data []byte) (map[string]any, error) {
	doc := make(map[string]any)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not decode template: %w", err)
	}
	return doc, nil
}
