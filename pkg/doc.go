// Package pkg provides the core libraries for the Tackle CRM.
//
// # Overview
//
// Tackle keeps a small sales workspace — contacts, leads, deals, accounts,
// email templates — behind a JSON API with a customizable widget dashboard.
// The pkg directory is organized into four main areas:
//
//  1. Domain - Records and the rules between them ([crm], [grid], [template])
//  2. Storage - Repositories and caching ([store], [cache], [session], [io])
//  3. Access - Identity and outbound HTTP ([auth], [httputil])
//  4. Support - Configuration, errors, hooks ([config], [errors], [observability])
//
// # Architecture
//
// The typical request flow through Tackle:
//
//	HTTP request
//	         ↓
//	    internal/api (session resolution, JSON envelopes)
//	         ↓
//	    [crm] package (validation + domain rules)
//	         ↓
//	    [store] package (memory or MongoDB repositories)
//	         ↓
//	    internal/dashboard (aggregation, cached via [cache])
//
// # Quick Start
//
// Open repositories and compute a dashboard layout:
//
//	import (
//	    "context"
//	    "github.com/mgrendahl/tackle/pkg/crm"
//	    "github.com/mgrendahl/tackle/pkg/grid"
//	    "github.com/mgrendahl/tackle/pkg/store"
//	)
//
//	// 1. Open a backend (memory here; ConnectMongo for production)
//	stores := store.NewMemoryStores()
//
//	// 2. Create a record
//	contact := crm.NewContact("static:local", "Ada", "Lovelace", "ada@example.com")
//	_ = stores.Contacts.Create(context.Background(), contact)
//
//	// 3. Compact a widget board after a removal
//	layout = grid.Compact(layout, visible)
//
// # Main Packages
//
// ## Domain
//
// [crm] - Record types (Contact, Lead, Deal, Account, EmailTemplate),
// construction and validation, the lead status and deal stage vocabularies
// with their transition rules, and user preferences.
//
// [grid] - The 12-column widget board: placements, occupancy scanning,
// first-fit slot search, and the compaction pass that closes gaps after
// widgets are hidden or removed.
//
// [template] - Merge-field email rendering ({{first_name}} and friends)
// with a closed field catalog and validation of unknown fields.
//
// [relmap] - Account relationship maps: graph assembly from one account's
// contacts and deals, DOT generation, and SVG/PNG rasterization.
//
// ## Storage
//
// [store] - Repository interfaces with two backends: in-memory maps for
// tests and the dev server, MongoDB for production. Owner-scoped queries,
// unique case-insensitive contact email per workspace.
//
// [cache] - Byte cache behind summaries and rendered maps. File, Redis,
// and null backends plus the Keyer that hashes request options into keys.
//
// [session] - Browser and CLI sessions with memory, file, and Redis
// backends, one-shot OAuth state tokens, and the no-auth dev identity.
//
// [io] - Contacts CSV import/export and the versioned workspace JSON dump
// used by `tackle admin export` and `import`.
//
// ## Access
//
// [auth] - Identity providers: GitHub OAuth (web and device flows) and a
// static provider for local development.
//
// [httputil] - Outbound-HTTP utilities shared by the providers: file-based
// JSON response cache and retry with exponential backoff.
//
// ## Support
//
// [config] - TOML server configuration with TACKLE_* environment overrides.
//
// [errors] - Structured error codes (validation, not-found, conflict, auth,
// network, storage) the API maps onto HTTP statuses, plus input validators.
//
// [observability] - Hook interfaces (store, session, cache, HTTP) with
// no-op defaults so instrumentation never forces a backend dependency.
//
// [buildinfo] - Version metadata stamped at build time.
//
// # Common Workflows
//
// Convert a qualified lead into a contact:
//
//	converted, contact, err := lead.Convert()
//
// Render an account map to SVG:
//
//	g := relmap.Graph{Account: account, Contacts: contacts, Deals: deals}
//	dot := relmap.ToDOT(g, relmap.Options{})
//	svg, err := relmap.RenderSVG(ctx, dot)
//
// Import contacts from CSV:
//
//	contacts, err := io.ImportContactsCSV(path, ownerID)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/grid/...      # Specific package
//	go test -run Example        # Examples only
//
// [crm]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/crm
// [grid]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/grid
// [template]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/template
// [relmap]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/relmap
// [store]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/store
// [cache]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/cache
// [session]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/session
// [io]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/io
// [auth]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/auth
// [httputil]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/httputil
// [config]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/config
// [errors]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/errors
// [observability]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/mgrendahl/tackle/pkg/buildinfo
package pkg
