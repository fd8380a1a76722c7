// Package pages generates the human-readable catalog index page. This is a
// secondary step: a failure here is logged and never fails the build.
package pages

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/runnerforge/internal/config"
	"git.home.luguber.info/inful/runnerforge/internal/manifest"
)

var pageTemplate = template.Must(template.New("catalog").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.ListName}}</title>
</head>
<body>
<h1>{{.ListName}}</h1>
<ul>
{{range .Runners}}<li>
<h2>{{.Name}}{{if .Version}} <small>{{.Version}}</small>{{end}}</h2>
<p><code>runners/{{.Name}}{{$.Ext}}</code> &middot; environment: <code>{{.Environment}}</code></p>
{{.Description}}
</li>
{{end}}</ul>
</body>
</html>
`))

type pageRunner struct {
	Name        string
	Version     string
	Environment string
	Description template.HTML
}

// Generate renders <outDir>/index.html describing the catalog. Runner
// descriptions are markdown and are rendered through goldmark.
func Generate(cat *manifest.Catalog, outDir string) error {
	md := goldmark.New()

	runners := make([]pageRunner, 0, len(cat.Runners))
	for _, entry := range cat.Runners {
		r := pageRunner{
			Name:        stringField(entry, "name"),
			Version:     stringField(entry, "version"),
			Environment: stringField(entry, manifest.FieldEnvironment),
		}
		if desc := stringField(entry, "description"); desc != "" {
			var buf bytes.Buffer
			if err := md.Convert([]byte(desc), &buf); err != nil {
				return fmt.Errorf("render description for %s: %w", r.Name, err)
			}
			r.Description = template.HTML(buf.String())
		}
		runners = append(runners, r)
	}

	var buf bytes.Buffer
	data := struct {
		ListName string
		Runners  []pageRunner
		Ext      string
	}{cat.ListName, runners, config.ArtifactExtension}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render catalog page: %w", err)
	}

	path := filepath.Join(outDir, config.CatalogPageName)
	if err := os.WriteFile(path, buf.Bytes(), 0o640); err != nil {
		return fmt.Errorf("write catalog page: %w", err)
	}
	return nil
}

func stringField(entry manifest.Entry, key string) string {
	if v, ok := entry[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}
