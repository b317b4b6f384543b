// Package relmap renders an account's relationship map.
//
// # Overview
//
// A relationship map shows everything hanging off one account: its
// contacts, its deals, and which contact each deal runs through. The
// account sits at the root, contacts and deals branch off it, and a
// dashed edge ties a deal to the contact working it.
//
// # Usage
//
// Build the graph from records, then pick an output:
//
//	g := relmap.Graph{Account: account, Contacts: contacts, Deals: deals}
//	nodes, edges := relmap.Build(g, relmap.Options{})   // JSON data for the UI
//	dot := relmap.ToDOT(g, relmap.Options{Detailed: true})
//	svg, err := relmap.RenderSVG(ctx, dot)
//	png, err := relmap.RenderPNG(ctx, dot, 2.0)          // 2x scale
//
// # Options
//
// The [Options] struct controls map generation:
//
//   - Detailed: node labels include titles, deal stages and values
//   - MaxNodes: caps contacts and deals drawn, adding a "+N more" stub
//     when records are cut (0 means no cap)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// and PNG rendering; no external Graphviz installation is needed.
package relmap
