package pathres

import (
	"strings"
	"testing"
)

func TestTenantPrefix_AllSegments(t *testing.T) {
	got := TenantPrefix(Config{TenantID: "acme_corp", PathNamespace: "docex", Prefix: "prod"})
	if got != "acme_corp/docex/prod/" {
		t.Fatalf("unexpected prefix: %q", got)
	}
}

func TestTenantPrefix_SkipsEmptySegments(t *testing.T) {
	got := TenantPrefix(Config{TenantID: "acme", PathNamespace: "", Prefix: " "})
	if got != "acme/" {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if TenantPrefix(Config{}) != "" {
		t.Fatalf("empty config must yield empty prefix")
	}
}

func TestTenantPrefix_TrimsSlashes(t *testing.T) {
	got := TenantPrefix(Config{TenantID: "/acme/", PathNamespace: "docex/", Prefix: "/prod"})
	if got != "acme/docex/prod/" {
		t.Fatalf("unexpected prefix: %q", got)
	}
}

func TestBasketSegment_SuffixFromID(t *testing.T) {
	got := BasketSegment("Invoices 2025", "123e4567-e89b-12d3-a456-426614174abc")
	if got != "invoices_2025_4abc/" {
		t.Fatalf("unexpected segment: %q", got)
	}
}

func TestDocumentSegment_WithExtension(t *testing.T) {
	got := DocumentSegment("inv 001", "123e4567-e89b-12d3-a456-426614170def12", "pdf")
	if !strings.HasPrefix(got, "inv_001_") || !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("unexpected segment: %q", got)
	}
	// Suffix comes from the last six hex chars of the id, hyphens ignored.
	if got != "inv_001_0def12.pdf" {
		t.Fatalf("unexpected id suffix: %q", got)
	}
}

func TestDocumentSegment_NoExtension(t *testing.T) {
	got := DocumentSegment("readme", "abcdef1234567890", "")
	if strings.Contains(got, ".") {
		t.Fatalf("expected no extension, got %q", got)
	}
}

func TestDocumentSegment_ExtensionLeadingDot(t *testing.T) {
	a := DocumentSegment("x", "abcdef123456", ".pdf")
	b := DocumentSegment("x", "abcdef123456", "pdf")
	if a != b {
		t.Fatalf("leading dot must not matter: %q vs %q", a, b)
	}
}

func TestSanitize_StripsSeparatorsAndReserved(t *testing.T) {
	got := Sanitize("../etc/passwd; rm -rf")
	if strings.ContainsAny(got, "/\\;: ") {
		t.Fatalf("reserved characters survived: %q", got)
	}
	if strings.HasPrefix(got, ".") || strings.HasPrefix(got, "_") {
		t.Fatalf("unexpected leading rune: %q", got)
	}
}

func TestSanitize_CollapsesAndBounds(t *testing.T) {
	got := Sanitize("a   b///c")
	if got != "a_b_c" {
		t.Fatalf("expected collapsed underscores, got %q", got)
	}
	long := Sanitize(strings.Repeat("x", 300))
	if len(long) > 64 {
		t.Fatalf("sanitized name exceeds bound: %d", len(long))
	}
}

func TestSanitize_EmptyFallsBack(t *testing.T) {
	if got := Sanitize("///"); got != "unnamed" {
		t.Fatalf("expected fallback name, got %q", got)
	}
}

// Regression for the double-prefix defect: joining stored components under
// the configured root must yield each path component exactly once.
func TestJoinUnderRoot_NoDoublePrefix(t *testing.T) {
	got := JoinUnderRoot("storage/docex", "basket_123/", "doc_456")
	if got != "storage/docex/basket_123/doc_456" {
		t.Fatalf("unexpected join: %q", got)
	}

	// A stored component that already repeats the root's trailing segment
	// must not be duplicated.
	got = JoinUnderRoot("storage/docex", "docex/basket_123/", "doc_456")
	if got != "storage/docex/basket_123/doc_456" {
		t.Fatalf("double prefix leaked through: %q", got)
	}
	if strings.Count(got, "docex") != 1 {
		t.Fatalf("expected exactly one docex segment: %q", got)
	}
}

func TestJoinUnderRoot_AbsoluteRootPreserved(t *testing.T) {
	got := JoinUnderRoot("/var/lib/docex", "basket_1/", "doc_2.pdf")
	if got != "/var/lib/docex/basket_1/doc_2.pdf" {
		t.Fatalf("unexpected join: %q", got)
	}
}

func TestJoinUnderRoot_EmptyRoot(t *testing.T) {
	got := JoinUnderRoot("", "acme/docex/prod/", "basket_1/", "doc_2")
	if got != "acme/docex/prod/basket_1/doc_2" {
		t.Fatalf("unexpected join: %q", got)
	}
}
