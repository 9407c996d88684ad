// Package web holds the page templates and static assets served by the
// browser demos.
package web

import "embed"

//go:embed templates static
var Assets embed.FS
