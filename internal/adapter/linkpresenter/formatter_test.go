package linkpresenter

import (
	"strings"
	"testing"

	"github.com/park285/MC-Whitelist-bot/internal/msgcat"
	"github.com/park285/MC-Whitelist-bot/pkg/linkdto"
)

type staticPrefix string

func (p staticPrefix) Prefix() string { return string(p) }

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()
	catalog, err := msgcat.New("")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return NewFormatter(catalog, staticPrefix("!"))
}

func TestLinkReplies(t *testing.T) {
	f := newTestFormatter(t)

	out := f.Link(linkdto.LinkResult{Code: linkdto.CodeLinked, MinecraftName: "Steve"})
	if !strings.Contains(out, "Steve") {
		t.Fatalf("linked reply = %q, want the name mentioned", out)
	}

	out = f.Link(linkdto.LinkResult{Code: linkdto.CodeChatAlreadyLinked})
	if !strings.Contains(out, "!unlink") {
		t.Fatalf("already-linked reply = %q, want the unlink hint with prefix", out)
	}

	for _, code := range []linkdto.Code{
		linkdto.CodeNameNotFound, linkdto.CodeIdentityClaimed,
		linkdto.CodeFleetUnavailable, linkdto.CodeSystemError,
	} {
		if out := f.Link(linkdto.LinkResult{Code: code}); out == "" || out == fallbackReply {
			t.Errorf("code %s fell back to the generic reply: %q", code, out)
		}
	}
}

func TestUnlinkReplies(t *testing.T) {
	f := newTestFormatter(t)

	for _, code := range []linkdto.Code{
		linkdto.CodeUnlinked, linkdto.CodeNeverLinked,
		linkdto.CodeUnlinkIncomplete, linkdto.CodeNameUnresolvable,
		linkdto.CodeSystemError,
	} {
		if out := f.Unlink(linkdto.UnlinkResult{Code: code}); out == "" || out == fallbackReply {
			t.Errorf("code %s fell back to the generic reply: %q", code, out)
		}
	}
}

func TestUnknownCodeFallsBack(t *testing.T) {
	f := newTestFormatter(t)
	if out := f.Link(linkdto.LinkResult{Code: linkdto.Code("bogus")}); out != fallbackReply {
		t.Fatalf("unknown code reply = %q, want fallback", out)
	}
	if out := f.Unlink(linkdto.UnlinkResult{Code: linkdto.Code("bogus")}); out != fallbackReply {
		t.Fatalf("unknown code reply = %q, want fallback", out)
	}
}

func TestNilFormatterNeverPanics(t *testing.T) {
	var f *Formatter
	if out := f.Link(linkdto.LinkResult{Code: linkdto.CodeLinked}); out != fallbackReply {
		t.Fatalf("nil formatter reply = %q, want fallback", out)
	}
	if out := f.Busy(); out != fallbackReply {
		t.Fatalf("nil formatter busy = %q, want fallback", out)
	}
}

func TestUsageMentionsCommand(t *testing.T) {
	f := newTestFormatter(t)
	out := f.Usage()
	if !strings.Contains(out, "!mclink") {
		t.Fatalf("usage = %q, want the full command with prefix", out)
	}
}
