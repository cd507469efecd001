package link

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/park285/MC-Whitelist-bot/internal/domain"
	"github.com/park285/MC-Whitelist-bot/internal/mojang"
	"github.com/park285/MC-Whitelist-bot/internal/rcon"
	"github.com/park285/MC-Whitelist-bot/internal/util"
	"github.com/park285/MC-Whitelist-bot/internal/whitelist"
	"github.com/park285/MC-Whitelist-bot/pkg/linkdto"
	"go.uber.org/zap"
)

// Fleet fans one whitelist command out across the configured servers.
type Fleet interface {
	Apply(ctx context.Context, action rcon.Action, name string) whitelist.Result
}

// Resolver queries the profile service. Both calls are unary and
// idempotent; the workflow does not retry them, a transport failure
// fails the step.
type Resolver interface {
	ProfileByName(ctx context.Context, name string) (*mojang.Profile, error)
	NameHistory(ctx context.Context, uuid string) ([]mojang.NameChange, error)
}

// Service runs the link/unlink reconciliation workflow. Each call runs
// to completion on the calling goroutine; the only shared mutable state
// is the repository, which serializes through its uniqueness
// constraints.
type Service struct {
	repo     Repository
	fleet    Fleet
	resolver Resolver
	logger   *zap.Logger
}

func NewService(repo Repository, fleet Fleet, resolver Resolver, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("account repository is required")
	}
	if fleet == nil {
		return nil, errors.New("whitelist fleet is required")
	}
	if resolver == nil {
		return nil, errors.New("profile resolver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, fleet: fleet, resolver: resolver, logger: logger}, nil
}

// Link resolves requestedName, claims the mapping, and whitelists the
// player on every server. If the fleet step fails the freshly created
// row is rolled back: a stored link without a confirmed whitelist entry
// is worse than no link at all.
func (s *Service) Link(ctx context.Context, chatID uint64, requestedName string) linkdto.LinkResult {
	log := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Uint64("chat_id", chatID),
	)

	if !util.IsValidUsername(requestedName) {
		log.Info("link rejected, invalid username", zap.String("requested", requestedName))
		return linkdto.LinkResult{Code: linkdto.CodeNameNotFound}
	}

	profile, err := s.resolver.ProfileByName(ctx, requestedName)
	if err != nil {
		if errors.Is(err, mojang.ErrNotFound) {
			log.Info("link name not found", zap.String("requested", requestedName))
			return linkdto.LinkResult{Code: linkdto.CodeNameNotFound}
		}
		log.Error("link profile lookup failed", zap.Error(err))
		return linkdto.LinkResult{Code: linkdto.CodeSystemError}
	}

	account := &domain.Account{
		ChatID:        chatID,
		MinecraftUUID: profile.ID,
		MinecraftName: profile.Name,
	}
	if err := s.repo.Insert(ctx, account); err != nil {
		switch {
		case errors.Is(err, ErrChatAlreadyLinked):
			log.Info("link refused, chat id already linked")
			return linkdto.LinkResult{Code: linkdto.CodeChatAlreadyLinked}
		case errors.Is(err, ErrIdentityClaimed):
			log.Info("link refused, minecraft account claimed", zap.String("mc_uuid", profile.ID))
			return linkdto.LinkResult{Code: linkdto.CodeIdentityClaimed}
		default:
			log.Error("link insert failed", zap.Error(err))
			return linkdto.LinkResult{Code: linkdto.CodeSystemError}
		}
	}

	res := s.fleet.Apply(ctx, rcon.ActionAdd, profile.Name)
	if res.Status != whitelist.FleetAllSucceeded {
		// Compensating action: the insert and the fleet apply are not
		// one transaction, so the row is rolled back by hand. A crash
		// right here orphans the row; that window is accepted.
		if _, derr := s.repo.DeleteByChatID(ctx, chatID); derr != nil {
			log.Warn("link compensation failed, orphaned account row", zap.Error(derr))
		}
		log.Warn("link fleet apply failed",
			zap.String("fleet_status", res.Status.String()),
			zap.Int("server_index", res.ServerIndex),
			zap.Error(res.Err),
		)
		return linkdto.LinkResult{Code: linkdto.CodeFleetUnavailable}
	}

	log.Info("link complete",
		zap.String("mc_uuid", profile.ID),
		zap.String("mc_name", profile.Name),
	)
	return linkdto.LinkResult{Code: linkdto.CodeLinked, MinecraftName: profile.Name}
}

// Unlink removes the stored mapping once every server has confirmed the
// whitelist removal. The row is only deleted after remote removal is
// confirmed; any terminal fleet failure leaves it intact for a retry.
func (s *Service) Unlink(ctx context.Context, chatID uint64) linkdto.UnlinkResult {
	log := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Uint64("chat_id", chatID),
	)

	account, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		log.Error("unlink lookup failed", zap.Error(err))
		return linkdto.UnlinkResult{Code: linkdto.CodeSystemError}
	}
	if account == nil {
		log.Info("unlink no-op, never linked")
		return linkdto.UnlinkResult{Code: linkdto.CodeNeverLinked}
	}

	name := account.MinecraftName
	res := s.fleet.Apply(ctx, rcon.ActionRemove, name)
	switch res.Status {
	case whitelist.FleetAllSucceeded:
		// fall through to delete
	case whitelist.FleetPlayerUnknown:
		recovered, result := s.recoverStaleName(ctx, log, account)
		if result != nil {
			return *result
		}
		name = recovered
	default:
		log.Warn("unlink fleet remove failed, keeping account row",
			zap.Int("server_index", res.ServerIndex),
			zap.Error(res.Err),
		)
		return linkdto.UnlinkResult{Code: linkdto.CodeUnlinkIncomplete}
	}

	removed, err := s.repo.DeleteByChatID(ctx, chatID)
	if err != nil {
		log.Error("unlink delete failed", zap.Error(err))
		return linkdto.UnlinkResult{Code: linkdto.CodeSystemError}
	}
	if !removed {
		log.Warn("unlink delete removed nothing")
	}

	log.Info("unlink complete", zap.String("mc_name", name))
	return linkdto.UnlinkResult{Code: linkdto.CodeUnlinked, MinecraftName: name}
}

// recoverStaleName handles the branch where a server rejects the stored
// display name: the player presumably renamed on the upstream source of
// truth. It re-resolves the current name from the uuid's history and
// retries the fleet removal exactly once. On success it returns the
// recovered name and a nil result; otherwise the terminal result.
func (s *Service) recoverStaleName(ctx context.Context, log *zap.Logger, account *domain.Account) (string, *linkdto.UnlinkResult) {
	log.Info("unlink entering stale-identity recovery",
		zap.String("mc_uuid", account.MinecraftUUID),
		zap.String("stored_name", account.MinecraftName),
	)

	history, err := s.resolver.NameHistory(ctx, account.MinecraftUUID)
	if err != nil {
		if errors.Is(err, mojang.ErrNotFound) {
			log.Info("recovery found no name history")
			return "", &linkdto.UnlinkResult{Code: linkdto.CodeNameUnresolvable}
		}
		log.Error("recovery history lookup failed", zap.Error(err))
		return "", &linkdto.UnlinkResult{Code: linkdto.CodeSystemError}
	}

	current := mojang.CurrentName(history)
	if current == "" {
		log.Info("recovery history empty")
		return "", &linkdto.UnlinkResult{Code: linkdto.CodeNameUnresolvable}
	}

	fresh, err := s.resolver.ProfileByName(ctx, current)
	if err != nil {
		if errors.Is(err, mojang.ErrNotFound) {
			log.Info("recovery name no longer resolves", zap.String("name", current))
			return "", &linkdto.UnlinkResult{Code: linkdto.CodeNameUnresolvable}
		}
		log.Error("recovery profile lookup failed", zap.Error(err))
		return "", &linkdto.UnlinkResult{Code: linkdto.CodeSystemError}
	}

	res := s.fleet.Apply(ctx, rcon.ActionRemove, fresh.Name)
	if res.Status != whitelist.FleetAllSucceeded {
		// One recovery attempt only; a second miss is terminal.
		log.Warn("recovery fleet remove failed",
			zap.String("fleet_status", res.Status.String()),
			zap.String("name", fresh.Name),
			zap.Error(res.Err),
		)
		return "", &linkdto.UnlinkResult{Code: linkdto.CodeUnlinkIncomplete}
	}

	log.Info("recovery removed under current name",
		zap.String("stored_name", account.MinecraftName),
		zap.String("current_name", fresh.Name),
	)
	return fresh.Name, nil
}
