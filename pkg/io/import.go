package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
)

// csvColumns is the canonical export column order. Import accepts any
// column order and ignores columns it does not recognize.
var csvColumns = []string{"first_name", "last_name", "email", "phone", "title", "notes"}

// ReadContactsCSV decodes contacts from CSV. Each data row becomes a
// fresh contact owned by ownerID, with a new ID and timestamps.
//
// The first row must be a header naming the columns; an email column is
// required, everything else is optional. Rows are validated like API
// writes, and a duplicate email within the file fails the whole import.
// Errors carry the 1-based row number of the offending line.
//
// ReadContactsCSV does not close r.
func ReadContactsCSV(r io.Reader, ownerID string) ([]crm.Contact, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeInvalidInput, "csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["email"]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "csv needs an email column")
	}
	field := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var contacts []crm.Contact
	seen := make(map[string]int) // lowercased email -> row it first appeared on
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "row %d", row)
		}

		contact := crm.NewContact(ownerID,
			field(rec, "first_name"), field(rec, "last_name"), field(rec, "email"))
		contact.Phone = field(rec, "phone")
		contact.Title = field(rec, "title")
		contact.Notes = field(rec, "notes")

		if err := contact.Validate(); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "row %d", row)
		}
		key := strings.ToLower(contact.Email)
		if first, dup := seen[key]; dup {
			return nil, errors.New(errors.ErrCodeDuplicateEmail,
				"row %d: duplicate email %q (first used on row %d)", row, contact.Email, first)
		}
		seen[key] = row

		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// ImportContactsCSV reads a CSV file at path and returns the decoded
// contacts, owned by ownerID.
//
// ImportContactsCSV opens the file, decodes it using [ReadContactsCSV],
// and closes the file. It returns the same validation errors as
// ReadContactsCSV for malformed rows or duplicate emails.
func ImportContactsCSV(path, ownerID string) ([]crm.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadContactsCSV(f, ownerID)
}

// ReadWorkspace decodes a workspace document from r.
//
// ReadWorkspace returns an error if:
//   - The JSON is malformed
//   - The document version is newer than [WorkspaceVersion]
//   - Two contacts share an email (case-insensitive)
//
// A missing version field is treated as version 1, so documents written
// before the field existed still load. ReadWorkspace does not close r.
func ReadWorkspace(r io.Reader) (Workspace, error) {
	var ws Workspace
	if err := json.NewDecoder(r).Decode(&ws); err != nil {
		return Workspace{}, fmt.Errorf("decode: %w", err)
	}
	if ws.Version == 0 {
		ws.Version = WorkspaceVersion
	}
	if ws.Version > WorkspaceVersion {
		return Workspace{}, errors.New(errors.ErrCodeUnsupported,
			"workspace version %d is newer than this build understands (max %d)",
			ws.Version, WorkspaceVersion)
	}

	seen := make(map[string]string) // lowercased email -> contact id
	for _, c := range ws.Contacts {
		key := strings.ToLower(c.Email)
		if firstID, dup := seen[key]; dup {
			return Workspace{}, errors.New(errors.ErrCodeDuplicateEmail,
				"contacts %s and %s share email %q", firstID, c.ID, c.Email)
		}
		seen[key] = c.ID
	}
	return ws, nil
}

// ImportWorkspace reads a workspace JSON file at path.
//
// ImportWorkspace opens the file, decodes it using [ReadWorkspace], and
// closes the file. It returns the same validation errors as ReadWorkspace.
func ImportWorkspace(path string) (Workspace, error) {
	f, err := os.Open(path)
	if err != nil {
		return Workspace{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadWorkspace(f)
}
