package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mgrendahl/tackle/pkg/crm"
)

// WorkspaceVersion is the current workspace document version. Import
// rejects documents written by a newer format.
const WorkspaceVersion = 1

// Workspace is everything a user owns, in one document. Record IDs,
// ownership and timestamps are preserved so an export re-imports
// identically and cross-record references stay intact.
type Workspace struct {
	Version     int                 `json:"version"`
	ExportedAt  time.Time           `json:"exported_at"`
	Accounts    []crm.Account       `json:"accounts,omitempty"`
	Contacts    []crm.Contact       `json:"contacts,omitempty"`
	Leads       []crm.Lead          `json:"leads,omitempty"`
	Deals       []crm.Deal          `json:"deals,omitempty"`
	Templates   []crm.EmailTemplate `json:"templates,omitempty"`
	Preferences *crm.Preferences    `json:"preferences,omitempty"`
}

// WriteContactsCSV encodes contacts as CSV and writes them to w.
// The output starts with a header row and uses the canonical column
// order; [ReadContactsCSV] accepts it back for round-trip processing.
func WriteContactsCSV(contacts []crm.Contact, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range contacts {
		rec := []string{c.FirstName, c.LastName, c.Email, c.Phone, c.Title, c.Notes}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write contact %s: %w", c.Email, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportContactsCSV writes contacts to a CSV file at path.
// This is a convenience wrapper around [WriteContactsCSV] for file-based output.
func ExportContactsCSV(contacts []crm.Contact, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteContactsCSV(contacts, f)
}

// WriteWorkspace encodes a workspace as indented JSON and writes it to w.
// A zero Version is stamped with [WorkspaceVersion] and a zero ExportedAt
// with the current time, so callers only fill the record slices.
func WriteWorkspace(ws Workspace, w io.Writer) error {
	if ws.Version == 0 {
		ws.Version = WorkspaceVersion
	}
	if ws.ExportedAt.IsZero() {
		ws.ExportedAt = time.Now().UTC()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ws); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportWorkspace writes a workspace to a JSON file at path.
// This is a convenience wrapper around [WriteWorkspace] for file-based output.
func ExportWorkspace(ws Workspace, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteWorkspace(ws, f)
}
