package cli

import (
	"context"
	"testing"

	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/store"
)

func TestSeedWorkspace(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores()

	counts, err := seedWorkspace(ctx, stores, "static:local")
	if err != nil {
		t.Fatalf("seedWorkspace() error: %v", err)
	}

	if counts.Accounts != 4 {
		t.Errorf("Accounts = %d, want 4", counts.Accounts)
	}
	if counts.Contacts != 7 {
		t.Errorf("Contacts = %d, want 7", counts.Contacts)
	}
	if counts.Leads != 6 {
		t.Errorf("Leads = %d, want 6", counts.Leads)
	}
	if counts.Deals != 7 {
		t.Errorf("Deals = %d, want 7", counts.Deals)
	}
	if counts.Templates != 2 {
		t.Errorf("Templates = %d, want 2", counts.Templates)
	}
	if counts.total() != 26 {
		t.Errorf("total() = %d, want 26", counts.total())
	}
}

func TestSeedWorkspaceLinksRecords(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores()
	const userID = "static:local"

	if _, err := seedWorkspace(ctx, stores, userID); err != nil {
		t.Fatalf("seedWorkspace() error: %v", err)
	}

	accounts, err := stores.Accounts.List(ctx, userID, store.AccountFilter{})
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	byID := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = true
	}

	deals, err := stores.Deals.List(ctx, userID, store.DealFilter{})
	if err != nil {
		t.Fatalf("list deals: %v", err)
	}
	for _, d := range deals {
		if !byID[d.AccountID] {
			t.Errorf("deal %q references account %q, which was not seeded", d.Name, d.AccountID)
		}
		if d.Stage.Closed() && d.CloseDate.IsZero() {
			t.Errorf("closed deal %q has no close date", d.Name)
		}
	}
}

func TestSeedWorkspaceWritesFeed(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores()
	const userID = "static:local"

	counts, err := seedWorkspace(ctx, stores, userID)
	if err != nil {
		t.Fatalf("seedWorkspace() error: %v", err)
	}

	feed, err := stores.Activities.List(ctx, userID, store.ActivityFilter{Limit: 100})
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(feed) != counts.total() {
		t.Errorf("feed has %d entries, want one per seeded record (%d)", len(feed), counts.total())
	}
	for _, a := range feed {
		if a.Kind != crm.ActivityImported {
			t.Errorf("feed entry %q has kind %q, want %q", a.Summary, a.Kind, crm.ActivityImported)
		}
	}
}

func TestSeedWorkspaceTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores()

	if _, err := seedWorkspace(ctx, stores, "static:local"); err != nil {
		t.Fatalf("first seedWorkspace() error: %v", err)
	}
	if _, err := seedWorkspace(ctx, stores, "static:local"); err == nil {
		t.Error("second seedWorkspace() should fail on duplicate emails")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStores()
	const srcUser = "static:local"

	counts, err := seedWorkspace(ctx, src, srcUser)
	if err != nil {
		t.Fatalf("seedWorkspace() error: %v", err)
	}

	dump, err := gatherWorkspace(ctx, src, srcUser)
	if err != nil {
		t.Fatalf("gatherWorkspace() error: %v", err)
	}
	if dump.records() != counts.total() {
		t.Fatalf("dump has %d records, want %d", dump.records(), counts.total())
	}

	dst := store.NewMemoryStores()
	const dstUser = "github:99"

	created, skipped, err := restoreWorkspace(ctx, dst, dstUser, dump)
	if err != nil {
		t.Fatalf("restoreWorkspace() error: %v", err)
	}
	if created != counts.total() {
		t.Errorf("created = %d, want %d", created, counts.total())
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}

	// Records are re-owned but keep their IDs, so references survive.
	deals, err := dst.Deals.List(ctx, dstUser, store.DealFilter{})
	if err != nil {
		t.Fatalf("list deals: %v", err)
	}
	if len(deals) == 0 {
		t.Fatal("no deals restored")
	}
	for _, d := range deals {
		if d.OwnerID != dstUser {
			t.Errorf("deal %q owned by %q, want %q", d.Name, d.OwnerID, dstUser)
		}
		if _, err := dst.Accounts.Get(ctx, dstUser, d.AccountID); err != nil {
			t.Errorf("deal %q references account %q, not restored: %v", d.Name, d.AccountID, err)
		}
	}
}

func TestRestoreWorkspaceSkipsConflicts(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStores()
	const userID = "static:local"

	counts, err := seedWorkspace(ctx, src, userID)
	if err != nil {
		t.Fatalf("seedWorkspace() error: %v", err)
	}
	dump, err := gatherWorkspace(ctx, src, userID)
	if err != nil {
		t.Fatalf("gatherWorkspace() error: %v", err)
	}

	// Importing into the workspace the dump came from conflicts on
	// every record.
	created, skipped, err := restoreWorkspace(ctx, src, userID, dump)
	if err != nil {
		t.Fatalf("restoreWorkspace() error: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d, want 0", created)
	}
	if skipped != counts.total() {
		t.Errorf("skipped = %d, want %d", skipped, counts.total())
	}
}

func TestGatherWorkspaceNoPreferences(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores()

	dump, err := gatherWorkspace(ctx, stores, "static:local")
	if err != nil {
		t.Fatalf("gatherWorkspace() error: %v", err)
	}
	if dump.Preferences != nil {
		t.Error("dump of an untouched workspace should have no preferences block")
	}
}

func TestDumpFormat(t *testing.T) {
	tests := []struct {
		path, flag string
		want       string
		wantErr    bool
	}{
		{"workspace.json", "", dumpFormatJSON, false},
		{"contacts.csv", "", dumpFormatCSV, false},
		{"CONTACTS.CSV", "", dumpFormatCSV, false},
		{"dump", "", dumpFormatJSON, false},
		{"", "", dumpFormatJSON, false},
		{"whatever.csv", "json", dumpFormatJSON, false},
		{"whatever.json", "csv", dumpFormatCSV, false},
		{"x", "xml", "", true},
	}

	for _, tt := range tests {
		got, err := dumpFormat(tt.path, tt.flag)
		if (err != nil) != tt.wantErr {
			t.Errorf("dumpFormat(%q, %q) error = %v, wantErr %v", tt.path, tt.flag, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("dumpFormat(%q, %q) = %q, want %q", tt.path, tt.flag, got, tt.want)
		}
	}
}
