// Package web holds the admin front-end's templates and static files,
// compiled into the binary.
package web

import "embed"

// TemplatesFS holds the page and partial templates parsed at server start.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds app.js and app.css, served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
