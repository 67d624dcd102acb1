// Package dashboard provides the embedded web UI assets for stepboard.
//
// The page draws the step-counter line chart with Chart.js. It loads the
// current state from /api/chart, then follows /api/sse for new points.
// The server substitutes {{.Title}} and {{.ElementID}} before serving it.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
