package templateutils

import (
	"bytes"
	"embed"
	"text/template"

	sprig "github.com/Masterminds/sprig/v3"
	"github.com/lithammer/dedent"
)

func MustTemplate(fs embed.FS, name string) *template.Template {
	content, err := fs.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return MustInline(name, string(content))
}

// MustInline parses a template written inline in Go source. Common leading indentation is
// removed so the text can be indented along with the surrounding code.
func MustInline(name, text string) *template.Template {
	t, err := template.New(name).
		Funcs(Funcs).
		Funcs(sprig.HermeticTxtFuncMap()).
		Option("missingkey=error").
		Parse(dedent.Dedent(text))
	if err != nil {
		panic(err)
	}
	return t
}

func Execute(t *template.Template, data any) (string, error) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
