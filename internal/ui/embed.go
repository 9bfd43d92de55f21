package ui

import "embed"

// Dist embeds the frontend served at /. index.html is an html/template
// receiving the page's API key; everything else is served as-is.
//
//go:embed all:dist
var Dist embed.FS
