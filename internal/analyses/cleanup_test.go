package analyses

import "testing"

func TestCleanupResponseStripsJSONFence(t *testing.T) {
	raw := "```json\n{\"a\": 1}\n```"
	got := CleanupResponse(raw)
	if got != `{"a": 1}` {
		t.Fatalf("expected fenced JSON extracted, got %q", got)
	}
}

func TestCleanupResponseStripsBareFence(t *testing.T) {
	raw := "```\n{\"a\": 1}\n```"
	got := CleanupResponse(raw)
	if got != `{"a": 1}` {
		t.Fatalf("expected fenced JSON extracted, got %q", got)
	}
}

func TestCleanupResponseExtractsObjectFromProse(t *testing.T) {
	raw := "Here is your analysis:\n{\"a\": {\"b\": 2}}\nLet me know if you need more."
	got := CleanupResponse(raw)
	if got != `{"a": {"b": 2}}` {
		t.Fatalf("expected outermost object extracted, got %q", got)
	}
}

func TestCleanupResponsePreservesExactEnclosedSubstring(t *testing.T) {
	inner := `{ "x":  [1, 2 , 3],"y":{"z":"}{"} }`
	raw := "noise before " + inner + " noise after"
	got := CleanupResponse(raw)
	if got != inner {
		t.Fatalf("expected exact enclosed substring preserved, got %q", got)
	}
}

func TestCleanupResponseNoObjectReturnsTrimmedInput(t *testing.T) {
	raw := "  I cannot analyze this image.  "
	got := CleanupResponse(raw)
	if got != "I cannot analyze this image." {
		t.Fatalf("expected trimmed input, got %q", got)
	}
}

func TestCleanupResponsePlainJSONUnchanged(t *testing.T) {
	raw := `{"a": 1}`
	if got := CleanupResponse(raw); got != raw {
		t.Fatalf("expected plain JSON unchanged, got %q", got)
	}
}
