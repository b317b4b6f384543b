// Package store defines the repository ports the application persists
// records through, with in-memory and MongoDB implementations.
//
// Every entity in pkg/crm gets a narrow interface (ContactStore,
// LeadStore, ...) so handlers and services never see a database driver.
// All operations take a context and are scoped to an owner: a user can
// only ever read or write their own records.
//
// # Backends
//
//   - memory: mutex-guarded maps for development and tests
//   - mongo: one collection per entity, owner-scoped queries, indexes
//     created on startup
//
// # Error Contract
//
// Lookups for missing records return [ErrNotFound]; uniqueness
// violations (duplicate IDs, duplicate contact emails per owner) return
// [ErrConflict]. Callers translate these to API error codes at the
// boundary; inside the application they are matched with errors.Is.
//
// # Preferences
//
// Preferences persist wholesale: Put replaces the entire record,
// last write wins. There are no partial updates and no versioning —
// the record is small and a lost race between two tabs is acceptable.
package store
