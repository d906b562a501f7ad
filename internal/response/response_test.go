package response

import (
	"strings"
	"testing"

	"github.com/groblegark/seance/internal/backend"
)

func claude(t *testing.T) *backend.Profile {
	t.Helper()
	p, err := backend.ByTool("claude")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func codex(t *testing.T) *backend.Profile {
	t.Helper()
	p, err := backend.ByTool("codex")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtractLastSingleResponse(t *testing.T) {
	screen := strings.Join([]string{
		"⏺ The tests pass.",
		"",
		"╭──────────────────────────╮",
		"│ ❯                        │",
		"╰──────────────────────────╯",
		"  ? for shortcuts",
	}, "\n")
	got := ExtractLast(screen, claude(t))
	if got != "The tests pass." {
		t.Errorf("got %q", got)
	}
}

func TestExtractLastPicksMostRecent(t *testing.T) {
	screen := strings.Join([]string{
		"⏺ First, I will look at the failing test.",
		"some tool output",
		"⏺ Fixed. The race was in the watcher setup.",
		"More detail on a second line.",
		"",
		"❯ ",
	}, "\n")
	got := ExtractLast(screen, claude(t))
	if !strings.HasPrefix(got, "Fixed.") {
		t.Errorf("got %q, want the later block", got)
	}
	if !strings.Contains(got, "second line") {
		t.Errorf("continuation line lost: %q", got)
	}
	if strings.Contains(got, "First") {
		t.Errorf("earlier block leaked: %q", got)
	}
}

func TestExtractLastCodexHeader(t *testing.T) {
	screen := strings.Join([]string{
		"• Ran ls -la",
		"codex",
		"Here is the directory listing summary.",
		"",
		"› ",
	}, "\n")
	got := ExtractLast(screen, codex(t))
	if got != "Here is the directory listing summary." {
		t.Errorf("got %q", got)
	}
}

func TestExtractLastNoMarker(t *testing.T) {
	if got := ExtractLast("just some output\n❯ ", claude(t)); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestExtractLastStripsBorders(t *testing.T) {
	screen := strings.Join([]string{
		"⏺ Done.",
		"────────────────────────────",
		"Bypassing Permissions",
		"",
	}, "\n")
	got := ExtractLast(screen, claude(t))
	if got != "Done." {
		t.Errorf("chrome survived: %q", got)
	}
}
