package codegen

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	domain "screen-dev-assistant/internal/domain/codegen"
)

func TestBuildText(t *testing.T) {
	reqs := []domain.Requirement{
		{Overview: "Auth", Context: "Email+password"},
		{Overview: "Recovery", Context: "Forgot password link"},
	}
	want := "Screen: Login\n- Auth: Email+password\n- Recovery: Forgot password link"
	if got := BuildText("Login", reqs); got != want {
		t.Fatalf("BuildText() = %q, want %q", got, want)
	}
}

func TestBuildTextEmptyRequirements(t *testing.T) {
	if got := BuildText("Settings", nil); got != "Screen: Settings" {
		t.Fatalf("BuildText() = %q", got)
	}
}

func TestBuildRequestIsDeterministic(t *testing.T) {
	reqs := []domain.Requirement{{Overview: "Auth", Context: "Email+password"}}
	img := &domain.RenderedImage{MediaType: "image/png", Data: "iVBORw0KGgo="}

	a := BuildRequest("Login", reqs, img)
	b := BuildRequest("Login", reqs, img)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("requests differ:\n%s", diff)
	}

	if len(a.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(a.Blocks))
	}
	if texts := a.TextBlocks(); len(texts) != 1 || !strings.Contains(texts[0], "- Auth: Email+password") {
		t.Fatalf("text blocks = %q", texts)
	}
	if diff := cmp.Diff(img, a.ImageBlock()); diff != "" {
		t.Fatalf("image block changed:\n%s", diff)
	}
	if a.SystemInstruction != SystemInstruction {
		t.Fatal("system instruction not fixed")
	}
}

func TestBuildRequestDoesNotAliasImage(t *testing.T) {
	img := &domain.RenderedImage{MediaType: "image/png", Data: "AAAA"}
	req := BuildRequest("Login", nil, img)
	img.Data = "BBBB"
	if req.ImageBlock().Data != "AAAA" {
		t.Fatal("request must not change after construction")
	}
}
