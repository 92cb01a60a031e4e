// Package web embeds the map page templates and static assets.
package web

import "embed"

// FS holds templates/ and static/.
//
//go:embed templates static
var FS embed.FS

// Template patterns parsed by the page renderer.
var Templates = []string{"templates/*.html", "templates/fragments/*.html"}
