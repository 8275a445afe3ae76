package dot

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"github.com/google/pprof/third_party/svgpan"
	"go.uber.org/zap"
)

var (
	viewBox  = regexp.MustCompile(`<svg\s*width="[^"]+"\s*height="[^"]+"\s*viewBox="[^"]+"`)
	graphID  = regexp.MustCompile(`<g id="graph\d"`)
	svgClose = regexp.MustCompile(`</svg>`)
)

// SvgPan makes the SVG output of dot pannable in a browser by wrapping the graph in a viewport
// driven by pprof's svgpan script. A non-empty title, the stack name, becomes the document title.
func SvgPan(svg, title string) string {
	// dot misses quoting some ampersands
	svg = strings.ReplaceAll(svg, "&;", "&amp;;")

	if loc := viewBox.FindStringIndex(svg); loc != nil {
		svg = svg[:loc[0]] + `<svg width="100%" height="100%"` + svg[loc[1]:]
		if end := strings.IndexByte(svg[loc[0]:], '>'); title != "" && end >= 0 {
			at := loc[0] + end + 1
			svg = svg[:at] + "<title>" + html.EscapeString(title) + "</title>" + svg[at:]
		}
	}
	if loc := graphID.FindStringIndex(svg); loc != nil {
		svg = svg[:loc[0]] +
			`<script type="text/ecmascript"><![CDATA[` + svgpan.JSSource + `]]></script>` +
			`<g id="viewport" transform="scale(0.5,0.5) translate(0,0)">` +
			svg[loc[0]:]
	}
	if loc := svgClose.FindStringIndex(svg); loc != nil {
		svg = svg[:loc[0]] + `</g>` + svg[loc[0]:]
	}
	return svg
}

// Execute runs graphviz's dot on input, writing SVG to output.
func Execute(input io.Reader, output io.Writer) error {
	errBuff := new(bytes.Buffer)
	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = input
	cmd.Stdout = output
	cmd.Stderr = errBuff
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("could not run 'dot': %w: %s", err, errBuff.String())
	}
	return nil
}

// ExecPan renders input with Execute and passes the result through SvgPan.
func ExecPan(input io.Reader, title string) (string, error) {
	out := new(bytes.Buffer)
	if err := Execute(input, out); err != nil {
		return "", err
	}
	zap.L().Named("dot").Debug("Rendered graph", zap.String("title", title), zap.Int("bytes", out.Len()))
	return SvgPan(out.String(), title), nil
}
