package relmap

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/mgrendahl/tackle/pkg/crm"
)

// Node kinds in a relationship map.
const (
	KindAccount = "account"
	KindContact = "contact"
	KindDeal    = "deal"
	KindMore    = "more" // stub standing in for records cut by MaxNodes
)

// moreNodeID is the stable ID of the truncation stub node.
const moreNodeID = "__more__"

// Graph is the raw material for one account's relationship map.
type Graph struct {
	Account  crm.Account
	Contacts []crm.Contact
	Deals    []crm.Deal
}

// Options configures relationship map generation.
type Options struct {
	// Detailed includes titles, deal stages and values in node labels.
	// When false, only names are shown.
	Detailed bool

	// MaxNodes caps how many contacts and how many deals are drawn.
	// Cut records collapse into a single "+N more" node. 0 means no cap.
	MaxNodes int
}

// Node is one box in the map. Stage is only set for deal nodes so the
// UI can color by pipeline position.
type Node struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Stage string `json:"stage,omitempty"`
}

// Edge connects two nodes, pointing away from the account.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Build assembles the nodes and edges of an account's relationship map.
// The account comes first, then its contacts, then its deals. A deal
// with a contact on it gets a second edge from that contact, provided
// the contact survived the MaxNodes cut.
func Build(g Graph, opts Options) ([]Node, []Edge) {
	nodes := []Node{{
		ID:    g.Account.ID,
		Kind:  KindAccount,
		Label: accountLabel(g.Account, opts.Detailed),
	}}
	var edges []Edge

	contacts, deals := g.Contacts, g.Deals
	cut := 0
	if opts.MaxNodes > 0 {
		if len(contacts) > opts.MaxNodes {
			cut += len(contacts) - opts.MaxNodes
			contacts = contacts[:opts.MaxNodes]
		}
		if len(deals) > opts.MaxNodes {
			cut += len(deals) - opts.MaxNodes
			deals = deals[:opts.MaxNodes]
		}
	}

	drawn := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		nodes = append(nodes, Node{ID: c.ID, Kind: KindContact, Label: contactLabel(c, opts.Detailed)})
		edges = append(edges, Edge{From: g.Account.ID, To: c.ID})
		drawn[c.ID] = true
	}
	for _, d := range deals {
		nodes = append(nodes, Node{ID: d.ID, Kind: KindDeal, Label: dealLabel(d, opts.Detailed), Stage: string(d.Stage)})
		edges = append(edges, Edge{From: g.Account.ID, To: d.ID})
		if d.ContactID != "" && drawn[d.ContactID] {
			edges = append(edges, Edge{From: d.ContactID, To: d.ID})
		}
	}

	if cut > 0 {
		nodes = append(nodes, Node{ID: moreNodeID, Kind: KindMore, Label: fmt.Sprintf("+%d more", cut)})
		edges = append(edges, Edge{From: g.Account.ID, To: moreNodeID})
	}
	return nodes, edges
}

// ToDOT converts a relationship map to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Contact-to-deal edges are dashed to separate them from the account's
// own spokes; the truncation stub is dashed and grey.
func ToDOT(g Graph, opts Options) string {
	nodes, edges := Build(g, opts)

	kind := make(map[string]string, len(nodes))
	var buf bytes.Buffer
	buf.WriteString("digraph relmap {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		kind[n.ID] = n.Kind
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if kind[e.From] == KindContact && kind[e.To] == KindDeal {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", e.From, e.To)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func accountLabel(a crm.Account, detailed bool) string {
	if !detailed || a.Industry == "" {
		return a.Name
	}
	return a.Name + "\n" + a.Industry
}

func contactLabel(c crm.Contact, detailed bool) string {
	if !detailed || c.Title == "" {
		return c.FullName()
	}
	return c.FullName() + "\n" + c.Title
}

func dealLabel(d crm.Deal, detailed bool) string {
	if !detailed {
		return d.Name
	}
	amount := fmt.Sprintf("%s %.2f", d.Currency, float64(d.Value)/100)
	return d.Name + "\n" + amount + "\n" + string(d.Stage)
}

func nodeAttrs(n Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.Label)}
	switch n.Kind {
	case KindAccount:
		attrs = append(attrs, "fillcolor=lightblue", "penwidth=2")
	case KindDeal:
		switch crm.DealStage(n.Stage) {
		case crm.StageClosedWon:
			attrs = append(attrs, "fillcolor=palegreen")
		case crm.StageClosedLost:
			attrs = append(attrs, "fillcolor=mistyrose")
		default:
			attrs = append(attrs, "fillcolor=lightyellow")
		}
	case KindMore:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or embedding.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI
// displays; it is applied by setting the graph's dpi attribute, so it
// works for any DOT input.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	if scale > 0 && scale != 1 {
		dot = strings.Replace(dot, "{\n", fmt.Sprintf("{\n  dpi=%.0f;\n", 96*scale), 1)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
