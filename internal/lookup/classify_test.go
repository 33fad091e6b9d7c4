package lookup

import (
	"strings"
	"testing"

	"github.com/sevlook/sevlook/internal/sevco"
)

func TestClassifyIPv4(t *testing.T) {
	terms := []string{
		"192.168.1.1",
		"10.0.0.254",
		"1.2.3.4",
		// Octet ranges are deliberately not validated.
		"999.999.999.999",
		"256.256.256.256",
	}
	for _, term := range terms {
		query, err := Classify(term)
		if err != nil {
			t.Fatalf("Classify(%q) failed: %v", term, err)
		}
		if query.Kind != sevco.SearchIP {
			t.Errorf("Classify(%q) kind = %s, want ip", term, query.Kind)
		}
	}
}

func TestClassifyHostname(t *testing.T) {
	terms := []string{
		"db01.internal",
		"web-server",
		"192.168.1",
		"1.2.3.4.5",
		"1234.1.1.1",
		"192.168.1.1a",
		"host.example.com",
	}
	for _, term := range terms {
		query, err := Classify(term)
		if err != nil {
			t.Fatalf("Classify(%q) failed: %v", term, err)
		}
		if query.Kind != sevco.SearchHostname {
			t.Errorf("Classify(%q) kind = %s, want hostname", term, query.Kind)
		}
	}
}

func TestClassifyTrimsWhitespace(t *testing.T) {
	query, err := Classify("  10.1.2.3\n")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if query.Term != "10.1.2.3" {
		t.Errorf("expected trimmed term, got %q", query.Term)
	}
	if query.Kind != sevco.SearchIP {
		t.Errorf("expected ip kind, got %s", query.Kind)
	}
}

func TestClassifyRejectsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := Classify(raw)
		if err == nil {
			t.Fatalf("Classify(%q) should have failed", raw)
		}
		if _, ok := err.(*ValidationError); !ok {
			t.Errorf("Classify(%q) error type = %T, want *ValidationError", raw, err)
		}
	}
}

func TestClassifyRejectsOverlongTerm(t *testing.T) {
	term := strings.Repeat("a", 254)
	_, err := Classify(term)
	if err == nil {
		t.Fatal("expected error for a 254-character term")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("error type = %T, want *ValidationError", err)
	}

	// 253 characters is the inclusive bound.
	if _, err := Classify(strings.Repeat("a", 253)); err != nil {
		t.Errorf("a 253-character term should classify: %v", err)
	}
}
