// Package io provides CSV and JSON import and export for CRM records.
//
// # Overview
//
// Two interchange formats are supported:
//
//   - Contacts CSV: the flat format spreadsheets speak. Used to bring
//     an address book in and to hand contact lists out.
//   - Workspace JSON: every record a user owns (accounts, contacts,
//     leads, deals, templates, preferences) in one document. Used for
//     backup, migration between deployments, and seeding.
//
// # CSV Format
//
// The first row is a header; columns may appear in any order and
// unknown columns are ignored. Recognized columns:
//
//	first_name,last_name,email,phone,title,notes
//
// Only email is required. Each imported row becomes a fresh contact
// owned by the importing user; IDs and timestamps are assigned on
// import, so a CSV can be re-imported by a different user without
// collisions. Duplicate emails within the file are rejected with the
// offending row number.
//
// # Workspace Format
//
// A versioned JSON object:
//
//	{
//	  "version": 1,
//	  "exported_at": "2026-08-21T09:30:00Z",
//	  "accounts":  [...],
//	  "contacts":  [...],
//	  "leads":     [...],
//	  "deals":     [...],
//	  "templates": [...],
//	  "preferences": {...}
//	}
//
// Workspace export preserves record IDs, ownership and timestamps, so
// an export can be re-imported identically (full round-trip fidelity).
// Cross-record references (contact→account, deal→contact) survive
// because IDs are kept.
//
// # Import
//
// Use [ImportContactsCSV] / [ImportWorkspace] to read from a file path,
// or [ReadContactsCSV] / [ReadWorkspace] to read from any io.Reader.
// Both validate their input: malformed rows, unknown versions and
// duplicate emails are reported with enough context to fix the file.
//
// # Export
//
// Use [ExportContactsCSV] / [ExportWorkspace] to write to a file, or
// [WriteContactsCSV] / [WriteWorkspace] to write to any io.Writer.
package io
