// Package web holds the fixed costs page: HTML templates rendered by
// internal/http and the static assets they reference.
package web

import "embed"

// TemplatesFS holds templates/*.html; each file is parsed under its base name.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the autosave script served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
