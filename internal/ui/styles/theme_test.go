package styles

import (
	"strings"
	"testing"
)

func TestPopupIsBordered(t *testing.T) {
	out := NewStyles().Popup.Render("help")
	if !strings.Contains(out, "help") || !strings.Contains(out, "╭") {
		t.Errorf("Expected a rounded frame around the content, got %q", out)
	}
}
