package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/store"
)

// seedCounts reports what seedWorkspace created.
type seedCounts struct {
	Accounts  int
	Contacts  int
	Leads     int
	Deals     int
	Templates int
}

func (s seedCounts) total() int {
	return s.Accounts + s.Contacts + s.Leads + s.Deals + s.Templates
}

// seedWorkspace fills userID's workspace with a small demo dataset:
// accounts with contacts, a lead funnel across every status, a deal
// pipeline with open and closed deals, and two email templates. Seeding
// into a workspace that already holds one of the demo emails fails with
// a conflict; use a fresh workspace.
func seedWorkspace(ctx context.Context, stores *store.Stores, userID string) (seedCounts, error) {
	var counts seedCounts

	accounts := map[string]crm.Account{}
	for _, spec := range []struct {
		name, industry, website string
	}{
		{"Acme Industries", "Manufacturing", "https://acme.example.com"},
		{"Globex Energy", "Energy", "https://globex.example.com"},
		{"Initech Software", "Technology", "https://initech.example.com"},
		{"Stark Logistics", "Transportation", ""},
	} {
		a := crm.NewAccount(userID, spec.name)
		a.Industry = spec.industry
		a.Website = spec.website
		if err := createAccount(ctx, stores, a); err != nil {
			return counts, err
		}
		accounts[spec.name] = a
		counts.Accounts++
	}

	contacts := map[string]crm.Contact{}
	for _, spec := range []struct {
		first, last, email, phone, title, account string
	}{
		{"Ada", "Lovelace", "ada@acme.example.com", "+1 555 0101", "CTO", "Acme Industries"},
		{"Grace", "Hopper", "grace@acme.example.com", "+1 555 0102", "VP Engineering", "Acme Industries"},
		{"Linus", "Person", "linus@globex.example.com", "+1 555 0103", "Head of Operations", "Globex Energy"},
		{"Margaret", "Hamilton", "margaret@initech.example.com", "+1 555 0104", "Director of Software", "Initech Software"},
		{"Katherine", "Johnson", "katherine@initech.example.com", "", "Analyst", "Initech Software"},
		{"Tony", "Stark", "tony@stark.example.com", "+1 555 0106", "CEO", "Stark Logistics"},
		{"Barbara", "Liskov", "barbara@indep.example.com", "", "Consultant", ""},
	} {
		c := crm.NewContact(userID, spec.first, spec.last, spec.email)
		c.Phone = spec.phone
		c.Title = spec.title
		if spec.account != "" {
			c.AccountID = accounts[spec.account].ID
		}
		if err := createContact(ctx, stores, c); err != nil {
			return counts, err
		}
		contacts[spec.first] = c
		counts.Contacts++
	}

	for _, spec := range []struct {
		first, last, email, company, source string
		status                              crm.LeadStatus
	}{
		{"Alan", "Turing", "alan@bletchley.example.com", "Bletchley Consulting", "referral", crm.LeadStatusNew},
		{"Edsger", "Dijkstra", "edsger@thi.example.com", "THI Group", "webform", crm.LeadStatusNew},
		{"Donald", "Knuth", "don@artcp.example.com", "ACP Publishing", "conference", crm.LeadStatusContacted},
		{"Frances", "Allen", "frances@compilers.example.com", "Allen Compilers", "webform", crm.LeadStatusContacted},
		{"John", "Backus", "john@fortran.example.com", "Fortran Labs", "cold-call", crm.LeadStatusQualified},
		{"Bit", "Bucket", "bit@nowhere.example.com", "", "webform", crm.LeadStatusLost},
	} {
		l := crm.NewLead(userID, spec.first, spec.last, spec.email)
		l.Company = spec.company
		l.Source = spec.source
		l.Status = spec.status
		if err := createLead(ctx, stores, l); err != nil {
			return counts, err
		}
		counts.Leads++
	}

	for _, spec := range []struct {
		name, account, contact string
		stage                  crm.DealStage
		value                  int64 // minor units
	}{
		{"Acme platform renewal", "Acme Industries", "Ada", crm.StageNegotiation, 48_000_00},
		{"Acme support expansion", "Acme Industries", "Grace", crm.StageProposal, 12_500_00},
		{"Globex pilot program", "Globex Energy", "Linus", crm.StageQualification, 30_000_00},
		{"Initech migration", "Initech Software", "Margaret", crm.StageProspecting, 85_000_00},
		{"Initech training", "Initech Software", "Katherine", crm.StageClosedWon, 9_800_00},
		{"Stark fleet tracking", "Stark Logistics", "Tony", crm.StageClosedWon, 64_000_00},
		{"Stark warehouse audit", "Stark Logistics", "Tony", crm.StageClosedLost, 22_000_00},
	} {
		d := crm.NewDeal(userID, spec.name, spec.value)
		d.AccountID = accounts[spec.account].ID
		d.ContactID = contacts[spec.contact].ID
		d.Stage = spec.stage
		if spec.stage.Closed() {
			d.CloseDate = time.Now().UTC().AddDate(0, 0, -7)
		}
		if err := createDeal(ctx, stores, d); err != nil {
			return counts, err
		}
		counts.Deals++
	}

	for _, spec := range []struct {
		name, subject, body string
	}{
		{
			"Warm intro",
			"Hello {{first_name}}",
			"Hi {{first_name}},\n\nGreat meeting you. Would {{account_name}} be open to a short call next week?\n",
		},
		{
			"Renewal reminder",
			"{{account_name}} renewal",
			"Hi {{first_name}},\n\nYour contract is coming up for renewal. Happy to walk through options.\n",
		},
	} {
		t := crm.NewEmailTemplate(userID, spec.name, spec.subject, spec.body)
		if err := createTemplate(ctx, stores, t); err != nil {
			return counts, err
		}
		counts.Templates++
	}

	return counts, nil
}

// The create helpers validate, write, and append a feed entry, so a
// seeded workspace has the same shape as one built through the API.

func createAccount(ctx context.Context, stores *store.Stores, a crm.Account) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("seed account %s: %w", a.Name, err)
	}
	if err := stores.Accounts.Create(ctx, a); err != nil {
		return fmt.Errorf("seed account %s: %w", a.Name, err)
	}
	appendSeedActivity(ctx, stores, a.OwnerID, crm.RecordAccount, a.ID, "imported account "+a.Name)
	return nil
}

func createContact(ctx context.Context, stores *store.Stores, c crm.Contact) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("seed contact %s: %w", c.Email, err)
	}
	if err := stores.Contacts.Create(ctx, c); err != nil {
		return fmt.Errorf("seed contact %s: %w", c.Email, err)
	}
	appendSeedActivity(ctx, stores, c.OwnerID, crm.RecordContact, c.ID, "imported contact "+c.FullName())
	return nil
}

func createLead(ctx context.Context, stores *store.Stores, l crm.Lead) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("seed lead %s: %w", l.Email, err)
	}
	if err := stores.Leads.Create(ctx, l); err != nil {
		return fmt.Errorf("seed lead %s: %w", l.Email, err)
	}
	appendSeedActivity(ctx, stores, l.OwnerID, crm.RecordLead, l.ID, "imported lead "+l.FullName())
	return nil
}

func createDeal(ctx context.Context, stores *store.Stores, d crm.Deal) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("seed deal %s: %w", d.Name, err)
	}
	if err := stores.Deals.Create(ctx, d); err != nil {
		return fmt.Errorf("seed deal %s: %w", d.Name, err)
	}
	appendSeedActivity(ctx, stores, d.OwnerID, crm.RecordDeal, d.ID, "imported deal "+d.Name)
	return nil
}

func createTemplate(ctx context.Context, stores *store.Stores, t crm.EmailTemplate) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("seed template %s: %w", t.Name, err)
	}
	if err := stores.Templates.Create(ctx, t); err != nil {
		return fmt.Errorf("seed template %s: %w", t.Name, err)
	}
	appendSeedActivity(ctx, stores, t.OwnerID, crm.RecordTemplate, t.ID, "imported template "+t.Name)
	return nil
}

// appendSeedActivity best-effort appends a feed entry; a workspace is
// usable without its feed.
func appendSeedActivity(ctx context.Context, stores *store.Stores, ownerID string, rt crm.RecordType, recordID, summary string) {
	_ = stores.Activities.Append(ctx, crm.NewActivity(ownerID, crm.ActivityImported, rt, recordID, summary))
}
