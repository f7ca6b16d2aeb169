// Package web embeds the templates and browser assets of the finance tracker.
package web

import "embed"

// TemplatesFS holds the page, partial and dialog templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the small page script.
//
//go:embed static/*
var StaticFS embed.FS
