package linkpresenter

import "strings"

// Presenter delivers replies without coupling the workflow to the chat
// transport. A direct-message send may be unavailable on some relays;
// Confirm falls back to the channel in that case.
type Presenter struct {
	sendChannel func(channelID uint64, message string) error
	sendDirect  func(userID uint64, message string) error
}

func NewPresenter(sendChannel func(channelID uint64, message string) error, sendDirect func(userID uint64, message string) error) *Presenter {
	return &Presenter{
		sendChannel: sendChannel,
		sendDirect:  sendDirect,
	}
}

// Reply posts text into the linking channel.
func (p *Presenter) Reply(channelID uint64, message string) error {
	if p == nil || p.sendChannel == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendChannel(channelID, message)
}

// Confirm sends the link confirmation privately, falling back to the
// channel when DMs fail (closed DMs are common).
func (p *Presenter) Confirm(userID, channelID uint64, message string) error {
	if p == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	if p.sendDirect != nil {
		if err := p.sendDirect(userID, message); err == nil {
			return nil
		}
	}
	return p.Reply(channelID, message)
}
