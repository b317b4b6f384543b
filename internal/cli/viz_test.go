package cli

import "testing"

func TestValidateFormats(t *testing.T) {
	if err := validateFormats([]string{"svg", "png", "dot", "json"}); err != nil {
		t.Errorf("all supported formats should validate: %v", err)
	}
	if err := validateFormats([]string{"svg", "pdf"}); err == nil {
		t.Error("pdf is not supported and should be rejected")
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, accountID string
		want              string
	}{
		{"", "abc123", "account-abc123"},
		{"acme.svg", "abc123", "acme"},
		{"acme.png", "abc123", "acme"},
		{"maps/acme", "abc123", "maps/acme"},
		{"report.txt", "abc123", "report.txt"}, // unknown extension kept
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.accountID); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.accountID, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	single := &vizOpts{formats: []string{"svg"}, output: "here.svg"}
	if got := outputPath(single, "abc", "svg"); got != "here.svg" {
		t.Errorf("single format with explicit output = %q, want %q", got, "here.svg")
	}

	multi := &vizOpts{formats: []string{"svg", "dot"}, output: "acme.svg"}
	if got := outputPath(multi, "abc", "dot"); got != "acme.dot" {
		t.Errorf("multiple formats derive from base = %q, want %q", got, "acme.dot")
	}

	bare := &vizOpts{formats: []string{"png"}}
	if got := outputPath(bare, "abc", "png"); got != "account-abc.png" {
		t.Errorf("default output = %q, want %q", got, "account-abc.png")
	}
}
