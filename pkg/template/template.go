// Package template renders email templates with merge-field placeholders.
//
// Templates reference record data with double-brace placeholders:
//
//	Subject: Intro — {{full_name}}
//	Body:    Hi {{first_name}}, great meeting someone from {{account_name}}!
//
// The field set is closed: [Validate] rejects placeholders that are not in
// the catalog, so typos surface when the template is saved rather than as
// blank spots in an outgoing email. Placeholders for fields the record
// leaves empty (no phone, no linked account) render as empty strings.
//
// Rendering is preview-only; nothing in this package sends email.
package template

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/errors"
)

// fieldPattern matches {{field_name}} with optional inner whitespace.
// Anything that does not match (unbalanced braces, bad characters) is
// left in the text untouched.
var fieldPattern = regexp.MustCompile(`\{\{\s*([a-z][a-z0-9_]*)\s*\}\}`)

// contactFields maps merge-field names to their contact accessors.
var contactFields = map[string]func(crm.Contact) string{
	"first_name": func(c crm.Contact) string { return c.FirstName },
	"last_name":  func(c crm.Contact) string { return c.LastName },
	"full_name":  func(c crm.Contact) string { return c.FullName() },
	"email":      func(c crm.Contact) string { return c.Email },
	"phone":      func(c crm.Contact) string { return c.Phone },
	"title":      func(c crm.Contact) string { return c.Title },
}

// accountFields maps merge-field names to their account accessors.
// They render empty when the contact has no linked account.
var accountFields = map[string]func(crm.Account) string{
	"account_name":     func(a crm.Account) string { return a.Name },
	"account_industry": func(a crm.Account) string { return a.Industry },
	"account_website":  func(a crm.Account) string { return a.Website },
}

// KnownFields returns every merge field the renderer understands, sorted.
// The template editor uses this for its field picker.
func KnownFields() []string {
	fields := make([]string, 0, len(contactFields)+len(accountFields))
	for name := range contactFields {
		fields = append(fields, name)
	}
	for name := range accountFields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// Fields returns the merge fields referenced in s, in order of first
// appearance, without duplicates. Unknown fields are included; Validate
// is the place that rejects them.
func Fields(s string) []string {
	var fields []string
	seen := make(map[string]bool)
	for _, m := range fieldPattern.FindAllStringSubmatch(s, -1) {
		if name := m[1]; !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	return fields
}

// Validate checks that the template's subject and body reference only
// known merge fields.
func Validate(tpl crm.EmailTemplate) error {
	var unknown []string
	for _, name := range Fields(tpl.Subject + "\n" + tpl.Body) {
		if !known(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return errors.New(errors.ErrCodeInvalidTemplate,
			"unknown merge fields: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Rendered is a template with all merge fields substituted.
type Rendered struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Render substitutes the template's merge fields with values from the
// contact and its account. A nil account renders account fields as empty
// strings. Unknown fields fail with the same error Validate reports.
func Render(tpl crm.EmailTemplate, contact crm.Contact, account *crm.Account) (Rendered, error) {
	if err := Validate(tpl); err != nil {
		return Rendered{}, err
	}
	replace := func(s string) string {
		return fieldPattern.ReplaceAllStringFunc(s, func(match string) string {
			name := fieldPattern.FindStringSubmatch(match)[1]
			if get, ok := contactFields[name]; ok {
				return get(contact)
			}
			if get, ok := accountFields[name]; ok && account != nil {
				return get(*account)
			}
			return ""
		})
	}
	return Rendered{
		Subject: replace(tpl.Subject),
		Body:    replace(tpl.Body),
	}, nil
}

func known(name string) bool {
	if _, ok := contactFields[name]; ok {
		return true
	}
	_, ok := accountFields[name]
	return ok
}
