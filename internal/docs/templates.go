package docs

import "text/template"

type templateData struct {
	Project         string
	SessionID       string
	Phase           string
	Goals           []string
	CompletedWork   []string
	ContextDumpText string
	GeneratedAt     string
}

var templates = map[Kind]*template.Template{
	KindReadme: template.Must(template.New("readme").Parse(
		`# {{.Project}}

Generated {{.GeneratedAt}}.

## Status

Current phase: {{.Phase}}.
`)),
	KindAPI: template.Must(template.New("api").Parse(
		`# {{.Project}} API

Generated {{.GeneratedAt}} from session {{.SessionID}}.
`)),
	KindArchitecture: template.Must(template.New("architecture").Parse(
		`# {{.Project}} Architecture

Generated {{.GeneratedAt}}.

## Completed components
{{range .CompletedWork}}- {{.}}
{{end}}
`)),
	KindHandoff: template.Must(template.New("handoff").Parse(
		`# Handoff — {{.Project}}

Session {{.SessionID}}, phase {{.Phase}}, generated {{.GeneratedAt}}.

## Next goals
{{range .Goals}}- {{.}}
{{end}}
{{if .ContextDumpText}}
## Context dump

{{.ContextDumpText}}
{{end}}
`)),
}
