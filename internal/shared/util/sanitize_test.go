package util

import "testing"

func TestSanitizeFileNameReplacesSeparators(t *testing.T) {
	got, err := SanitizeFileName("roof/top\\photo.png")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "roof_top_photo.png" {
		t.Fatalf("expected separators replaced, got %q", got)
	}
}

func TestSanitizeFileNameRejectsTraversal(t *testing.T) {
	if _, err := SanitizeFileName("../../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestSanitizeFileNameRejectsEmpty(t *testing.T) {
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
}
