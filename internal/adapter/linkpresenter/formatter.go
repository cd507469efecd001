package linkpresenter

import (
	"strings"

	"github.com/park285/MC-Whitelist-bot/internal/msgcat"
	"github.com/park285/MC-Whitelist-bot/pkg/linkdto"
)

// PrefixProvider exposes the command prefix replies should reference.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders workflow outcomes into chat replies via the message
// catalog, with hard-coded fallbacks so a broken override file can
// never leave a user without an answer.
type Formatter struct {
	catalog        *msgcat.Catalog
	prefixProvider PrefixProvider
}

func NewFormatter(catalog *msgcat.Catalog, provider PrefixProvider) *Formatter {
	return &Formatter{catalog: catalog, prefixProvider: provider}
}

func (f *Formatter) prefix() string {
	if f == nil || f.prefixProvider == nil {
		return "!"
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

var linkKeys = map[linkdto.Code]string{
	linkdto.CodeLinked:            "link.linked",
	linkdto.CodeNameNotFound:      "link.name_not_found",
	linkdto.CodeChatAlreadyLinked: "link.chat_already_linked",
	linkdto.CodeIdentityClaimed:   "link.identity_claimed",
	linkdto.CodeFleetUnavailable:  "link.fleet_unavailable",
	linkdto.CodeSystemError:       "link.system_error",
}

var unlinkKeys = map[linkdto.Code]string{
	linkdto.CodeUnlinked:         "unlink.unlinked",
	linkdto.CodeNeverLinked:      "unlink.never_linked",
	linkdto.CodeUnlinkIncomplete: "unlink.unlink_incomplete",
	linkdto.CodeNameUnresolvable: "unlink.name_unresolvable",
	linkdto.CodeSystemError:      "unlink.system_error",
}

const fallbackReply = "There was a system issue. Please try again later."

func (f *Formatter) Link(res linkdto.LinkResult) string {
	key, ok := linkKeys[res.Code]
	if !ok {
		return fallbackReply
	}
	return f.render(key, map[string]string{
		"Name":   res.MinecraftName,
		"Prefix": f.prefix(),
	})
}

func (f *Formatter) Unlink(res linkdto.UnlinkResult) string {
	key, ok := unlinkKeys[res.Code]
	if !ok {
		return fallbackReply
	}
	return f.render(key, map[string]string{
		"Name":   res.MinecraftName,
		"Prefix": f.prefix(),
	})
}

func (f *Formatter) Usage() string {
	return f.render("link.usage", map[string]string{"Prefix": f.prefix()})
}

func (f *Formatter) Busy() string {
	return f.render("common.busy", nil)
}

func (f *Formatter) render(key string, data any) string {
	if f == nil || f.catalog == nil {
		return fallbackReply
	}
	text, err := f.catalog.Render(key, data)
	if err != nil || strings.TrimSpace(text) == "" {
		return fallbackReply
	}
	return text
}
