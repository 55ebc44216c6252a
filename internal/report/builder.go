// Package report renders the console summaries of a cleanup run.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/ibeckermayer/xsweep/internal/types"
)

const (
	maxPreviewPosts = 5
	previewLen      = 60
	rule            = "=================================================="
)

// Builder renders run reports
type Builder struct {
	template *template.Template
}

// New creates a report builder
func New() (*Builder, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"rule": func() string { return rule },
	}).Parse(templates)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Builder{template: tmpl}, nil
}

// Summary is what the run found before deleting anything
type Summary struct {
	Username   string
	Total      int
	ToDelete   int
	Preserved  int
	Previews   []string
	MorePosts  int
	Incomplete bool
	FetchError string
}

// Final is what the run did
type Final struct {
	DryRun      bool
	Interrupted bool
	Tally       types.Tally
}

// NewSummary collects counts and previews of up to five preserved posts
func NewSummary(username string, total int, toDelete, toKeep []types.PostRecord, complete bool, fetchErr error) Summary {
	s := Summary{
		Username:   username,
		Total:      total,
		ToDelete:   len(toDelete),
		Preserved:  len(toKeep),
		Incomplete: !complete,
	}
	for i, p := range toKeep {
		if i == maxPreviewPosts {
			s.MorePosts = len(toKeep) - maxPreviewPosts
			break
		}
		s.Previews = append(s.Previews, oneLine(p.Preview(previewLen)))
	}
	if fetchErr != nil {
		s.FetchError = fetchErr.Error()
	}
	return s
}

// Banner writes the run header
func (b *Builder) Banner(w io.Writer, dryRun bool) error {
	return b.template.ExecuteTemplate(w, "banner", dryRun)
}

// WriteSummary writes the classification summary
func (b *Builder) WriteSummary(w io.Writer, s Summary) error {
	return b.template.ExecuteTemplate(w, "summary", s)
}

// WriteFinal writes the deletion results
func (b *Builder) WriteFinal(w io.Writer, f Final) error {
	return b.template.ExecuteTemplate(w, "final", f)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const templates = `
{{- define "banner"}}
{{rule}}
X CLEANUP
{{rule}}
{{if .}}
DRY RUN MODE - No posts will actually be deleted
Run with -delete (or set cleanup.dry_run = false) to delete for real
{{else}}
WARNING: This will DELETE posts permanently!
{{end}}
{{- end}}

{{- define "summary"}}
{{rule}}
SUMMARY{{if .Username}} for @{{.Username}}{{end}}
{{rule}}
Total posts found: {{.Total}}
Posts to DELETE: {{.ToDelete}}
Retweets to KEEP: {{.Preserved}}
{{- if .Incomplete}}

NOTE: fetching stopped early{{if .FetchError}} ({{.FetchError}}){{end}}; the post history may be incomplete.
{{- end}}
{{- if .Previews}}

Preserved retweets preview:
{{- range .Previews}}
  - {{.}}
{{- end}}
{{- if .MorePosts}}
  ... and {{.MorePosts}} more
{{- end}}
{{- end}}
{{end}}

{{- define "final"}}
{{rule}}
{{if .Interrupted}}INTERRUPTED{{else}}COMPLETED{{end}}
{{rule}}
{{- if .DryRun}}
DRY RUN: Would have deleted {{.Tally.Deleted}} posts
{{- else}}
Successfully deleted: {{.Tally.Deleted}} posts
{{- if .Tally.Failed}}
Failed to delete: {{.Tally.Failed}} posts
{{- end}}
{{- end}}
Preserved retweets: {{.Tally.Preserved}}
{{end}}
`
