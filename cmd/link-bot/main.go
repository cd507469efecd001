package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/park285/MC-Whitelist-bot/internal/adapter/linkpresenter"
	"github.com/park285/MC-Whitelist-bot/internal/chatfast"
	appcfg "github.com/park285/MC-Whitelist-bot/internal/config"
	"github.com/park285/MC-Whitelist-bot/internal/cooldown"
	"github.com/park285/MC-Whitelist-bot/internal/mojang"
	"github.com/park285/MC-Whitelist-bot/internal/msgcat"
	"github.com/park285/MC-Whitelist-bot/internal/obslog"
	"github.com/park285/MC-Whitelist-bot/internal/rcon"
	"github.com/park285/MC-Whitelist-bot/internal/service/link"
	"github.com/park285/MC-Whitelist-bot/internal/util"
	"github.com/park285/MC-Whitelist-bot/internal/whitelist"
	"github.com/park285/MC-Whitelist-bot/pkg/linkdto"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	headers := func() map[string]string {
		h := map[string]string{}
		if token := strings.TrimSpace(os.Getenv("RELAY_TOKEN")); token != "" {
			h["Authorization"] = "Bearer " + token
		}
		return h
	}

	client := chatfast.NewClient(cfg.ChatBaseURL, chatfast.WithHeaderProvider(headers))

	ws := chatfast.NewWebSocket(cfg.ChatWSURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state chatfast.WebSocketState) {
		logger.Info("gateway state", zap.String("state", state.String()))
	})

	// Account store: postgres when configured, in-memory for dev runs.
	var repo link.Repository
	if cfg.DatabaseURL != "" {
		db, err := link.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database init error", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := link.EnsureSchema(ctx, db); err != nil {
			cancel()
			logger.Fatal("schema init error", zap.Error(err))
		}
		cancel()
		repo = link.NewRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, accounts will not survive restarts")
		repo = link.NewMemoryRepository()
	}

	// In-flight guard: optional, the bot degrades to unguarded commands
	// without redis.
	var guard *cooldown.Store
	if cfg.RedisURL != "" {
		rdb, err := cooldown.Dial(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis init error", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		guard = cooldown.NewStore(rdb, cfg.CommandGuardTTL)
	} else {
		logger.Warn("REDIS_URL not set, running without the command in-flight guard")
	}

	resolver := mojang.NewClient(cfg.MojangBaseURL)
	rconClient := rcon.NewClient(logger, rcon.WithTimeout(cfg.RconTimeout))
	fleet := whitelist.NewCoordinator(rconClient, cfg.WhitelistServers, logger,
		whitelist.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
	)

	svc, err := link.NewService(repo, fleet, resolver, logger)
	if err != nil {
		logger.Fatal("service init error", zap.Error(err))
	}

	catalog, err := msgcat.New(cfg.MessageOverrideDir)
	if err != nil {
		logger.Fatal("message catalog error", zap.Error(err))
	}
	formatter := linkpresenter.NewFormatter(catalog, prefixProvider{prefix: cfg.BotPrefix})
	presenter := linkpresenter.NewPresenter(
		func(channelID uint64, message string) error {
			return client.SendMessage(context.Background(), channelID, message)
		},
		func(userID uint64, message string) error {
			return client.SendDirectMessage(context.Background(), userID, message)
		},
	)

	bot := &bot{
		cfg:       cfg,
		svc:       svc,
		guard:     guard,
		formatter: formatter,
		presenter: presenter,
		logger:    logger,
	}

	ws.OnMessage(func(msg *chatfast.Message) {
		if msg == nil {
			return
		}
		switch msg.Event {
		case chatfast.EventMemberLeave:
			if cfg.GuildID != 0 && msg.GuildID != cfg.GuildID {
				return
			}
			// Fleet calls block for up to the full retry budget; never
			// hold the gateway read loop for that.
			go bot.handleMemberLeave(msg)
		case chatfast.EventMessage:
			if msg.ChannelID != cfg.LinkChannelID {
				return
			}
			if !strings.HasPrefix(strings.TrimSpace(msg.Content), cfg.BotPrefix) {
				return
			}
			go bot.handleCommand(msg)
		}
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("gateway connect error", zap.Error(err))
	}
	cancel()

	logger.Info("link bot running",
		zap.Uint64("link_channel_id", cfg.LinkChannelID),
		zap.Int("fleet_size", len(cfg.WhitelistServers)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = ws.Close(context.Background())
}

type bot struct {
	cfg       *appcfg.AppConfig
	svc       *link.Service
	guard     *cooldown.Store
	formatter *linkpresenter.Formatter
	presenter *linkpresenter.Presenter
	logger    *zap.Logger
}

func (b *bot) handleCommand(msg *chatfast.Message) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Content), b.cfg.BotPrefix))
	if raw == "" {
		return
	}
	parts := strings.Fields(raw)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	ctx := context.Background()
	switch cmd {
	case "mclink":
		if len(args) == 0 {
			_ = b.presenter.Reply(msg.ChannelID, b.formatter.Usage())
			return
		}
		if !b.acquire(ctx, msg) {
			return
		}
		defer b.release(ctx, msg.AuthorID)

		res := b.svc.Link(ctx, msg.AuthorID, util.SanitizeUsername(args[0]))
		if res.Code == linkdto.CodeLinked {
			_ = b.presenter.Confirm(msg.AuthorID, msg.ChannelID, b.formatter.Link(res))
			return
		}
		_ = b.presenter.Reply(msg.ChannelID, b.formatter.Link(res))
	case "unlink":
		if !b.acquire(ctx, msg) {
			return
		}
		defer b.release(ctx, msg.AuthorID)

		res := b.svc.Unlink(ctx, msg.AuthorID)
		_ = b.presenter.Reply(msg.ChannelID, b.formatter.Unlink(res))
	default:
		// Not ours; other bots share the channel.
	}
}

func (b *bot) handleMemberLeave(msg *chatfast.Message) {
	b.logger.Info("member left, unlinking",
		zap.Uint64("chat_id", msg.AuthorID),
		zap.String("name", msg.AuthorName),
	)
	res := b.svc.Unlink(context.Background(), msg.AuthorID)
	if res.Code != linkdto.CodeUnlinked && res.Code != linkdto.CodeNeverLinked {
		b.logger.Warn("leave unlink incomplete",
			zap.Uint64("chat_id", msg.AuthorID),
			zap.String("code", string(res.Code)),
		)
	}
}

func (b *bot) acquire(ctx context.Context, msg *chatfast.Message) bool {
	ok, err := b.guard.Acquire(ctx, msg.AuthorID)
	if err != nil {
		b.logger.Warn("guard acquire failed, continuing unguarded", zap.Error(err))
		return true
	}
	if !ok {
		_ = b.presenter.Reply(msg.ChannelID, b.formatter.Busy())
		return false
	}
	return true
}

func (b *bot) release(ctx context.Context, chatID uint64) {
	if err := b.guard.Release(ctx, chatID); err != nil {
		b.logger.Warn("guard release failed", zap.Error(err))
	}
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }
