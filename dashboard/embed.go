// Package dashboard provides the embedded web UI assets for the contact book.
//
// The embedded assets are served by the server package at the root path ("/").
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Contact list page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
