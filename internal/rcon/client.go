package rcon

import (
	"context"
	"fmt"
	"time"

	"github.com/park285/MC-Whitelist-bot/internal/domain"
	"go.uber.org/zap"
)

// PlayerUnknownReply is the vanilla server's exact reply when the named
// player has no profile on that server. Matching is case-sensitive on
// purpose: any other reply counts as success.
const PlayerUnknownReply = "That player does not exist"

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Outcome classifies one whitelist command against one server.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePlayerUnknown
	OutcomeUnreachable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePlayerUnknown:
		return "player_unknown"
	case OutcomeUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Result is the terminal state of a single Apply call. Err is set only
// for OutcomeUnreachable.
type Result struct {
	Outcome Outcome
	Reply   string
	Err     error
}

type Client struct {
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func NewClient(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{timeout: 5 * time.Second, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply opens a fresh authenticated session to target, issues one
// whitelist command and maps the reply. Connection and auth failures
// are both OutcomeUnreachable; the caller decides whether to retry.
func (c *Client) Apply(ctx context.Context, target domain.ServerTarget, action Action, name string) Result {
	sess, err := Dial(ctx, target.Addr, target.Password, c.timeout)
	if err != nil {
		c.logger.Warn("rcon connect failed",
			zap.String("addr", target.Addr),
			zap.Error(err),
		)
		return Result{Outcome: OutcomeUnreachable, Err: err}
	}
	defer sess.Close()

	reply, err := sess.Command(fmt.Sprintf("whitelist %s %s", action, name))
	if err != nil {
		c.logger.Warn("rcon command failed",
			zap.String("addr", target.Addr),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return Result{Outcome: OutcomeUnreachable, Err: err}
	}

	if reply == PlayerUnknownReply {
		return Result{Outcome: OutcomePlayerUnknown, Reply: reply}
	}

	c.logger.Debug("rcon command ok",
		zap.String("addr", target.Addr),
		zap.String("action", string(action)),
		zap.String("reply", reply),
	)
	return Result{Outcome: OutcomeSuccess, Reply: reply}
}
