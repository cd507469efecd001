package whitelist

import (
	"context"
	"time"

	"github.com/park285/MC-Whitelist-bot/internal/domain"
	"github.com/park285/MC-Whitelist-bot/internal/rcon"
	"go.uber.org/zap"
)

// Defaults carried from the original deployment; override via options.
const (
	DefaultRetryAttempts = 10
	DefaultRetryDelay    = 2 * time.Second
)

// Status is the aggregate outcome of one fleet-wide apply.
type Status int

const (
	// FleetAllSucceeded: every configured server accepted the command.
	FleetAllSucceeded Status = iota
	// FleetPartialFailure: a server stayed unreachable through the
	// whole retry budget; servers after it were not attempted.
	FleetPartialFailure
	// FleetPlayerUnknown: a server reported the player does not exist.
	FleetPlayerUnknown
)

func (s Status) String() string {
	switch s {
	case FleetAllSucceeded:
		return "all_succeeded"
	case FleetPartialFailure:
		return "partial_failure"
	case FleetPlayerUnknown:
		return "player_unknown"
	default:
		return "unknown"
	}
}

// Result reports the fleet outcome plus which server (by configured
// index) terminated the fan-out, when one did.
type Result struct {
	Status      Status
	ServerIndex int
	Err         error
}

// Applier issues one whitelist command to one server.
type Applier interface {
	Apply(ctx context.Context, target domain.ServerTarget, action rcon.Action, name string) rcon.Result
}

type Coordinator struct {
	client   Applier
	targets  []domain.ServerTarget
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

type Option func(*Coordinator)

func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Coordinator) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay >= 0 {
			c.delay = delay
		}
	}
}

func NewCoordinator(client Applier, targets []domain.ServerTarget, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		client:   client,
		targets:  targets,
		attempts: DefaultRetryAttempts,
		delay:    DefaultRetryDelay,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply fans the command out across the fleet in configured order,
// sequentially. Only "unreachable" is retried; "player unknown" and
// success are terminal per server. The fan-out stops at the first
// server that stays unreachable: a half-applied whitelist is left for
// the caller to surface rather than risk diverging further.
func (c *Coordinator) Apply(ctx context.Context, action rcon.Action, name string) Result {
	for i, target := range c.targets {
		res := c.applyWithRetry(ctx, target, action, name)
		switch res.Outcome {
		case rcon.OutcomeSuccess:
			continue
		case rcon.OutcomePlayerUnknown:
			c.logger.Info("whitelist player unknown",
				zap.String("addr", target.Addr),
				zap.String("name", name),
			)
			return Result{Status: FleetPlayerUnknown, ServerIndex: i}
		default:
			c.logger.Warn("whitelist server unreachable, aborting fan-out",
				zap.String("addr", target.Addr),
				zap.Int("server_index", i),
				zap.Int("attempts", c.attempts),
				zap.Error(res.Err),
			)
			return Result{Status: FleetPartialFailure, ServerIndex: i, Err: res.Err}
		}
	}
	return Result{Status: FleetAllSucceeded, ServerIndex: -1}
}

func (c *Coordinator) applyWithRetry(ctx context.Context, target domain.ServerTarget, action rcon.Action, name string) rcon.Result {
	var last rcon.Result
	for attempt := 1; attempt <= c.attempts; attempt++ {
		last = c.client.Apply(ctx, target, action, name)
		if last.Outcome != rcon.OutcomeUnreachable {
			return last
		}
		if attempt == c.attempts {
			break
		}
		if err := sleepWithContext(ctx, c.delay); err != nil {
			last.Err = err
			return last
		}
	}
	return last
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
