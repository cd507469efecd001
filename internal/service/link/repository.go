package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/park285/MC-Whitelist-bot/internal/domain"
)

var (
	// ErrChatAlreadyLinked: the chat user already owns an account row.
	ErrChatAlreadyLinked = errors.New("chat user already linked")
	// ErrIdentityClaimed: another chat user owns this Minecraft uuid.
	ErrIdentityClaimed = errors.New("minecraft account already linked")
)

// Repository is the durable chat↔Minecraft mapping. Insert must be
// atomic with respect to both uniqueness checks; concurrent workflows
// serialize here and nowhere else.
type Repository interface {
	Insert(ctx context.Context, account *domain.Account) error
	GetByChatID(ctx context.Context, chatID uint64) (*domain.Account, error)
	DeleteByChatID(ctx context.Context, chatID uint64) (bool, error)
}

type repository struct {
	db *sql.DB
}

// Open prepares a pooled postgres handle and verifies connectivity.
func Open(databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the account table if missing. The two unique
// constraints are what the whole linking invariant hangs on.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS minecrafters (
			id             BIGSERIAL PRIMARY KEY,
			chat_id        BIGINT NOT NULL,
			minecraft_uuid VARCHAR(32) NOT NULL,
			minecraft_name VARCHAR(16) NOT NULL,
			linked_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT minecrafters_chat_id_key UNIQUE (chat_id),
			CONSTRAINT minecrafters_minecraft_uuid_key UNIQUE (minecraft_uuid)
		)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return fmt.Errorf("nil account payload")
	}

	const query = `
		INSERT INTO minecrafters (chat_id, minecraft_uuid, minecraft_name)
		VALUES ($1, $2, $3)
		RETURNING id, linked_at`

	err := r.db.QueryRowContext(ctx, query,
		int64(account.ChatID),
		account.MinecraftUUID,
		account.MinecraftName,
	).Scan(&account.ID, &account.LinkedAt)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *repository) GetByChatID(ctx context.Context, chatID uint64) (*domain.Account, error) {
	const query = `
		SELECT id, chat_id, minecraft_uuid, minecraft_name, linked_at
		FROM minecrafters
		WHERE chat_id = $1`

	var (
		account domain.Account
		rawChat int64
	)
	err := r.db.QueryRowContext(ctx, query, int64(chatID)).Scan(
		&account.ID,
		&rawChat,
		&account.MinecraftUUID,
		&account.MinecraftName,
		&account.LinkedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	account.ChatID = uint64(rawChat)
	return &account, nil
}

func (r *repository) DeleteByChatID(ctx context.Context, chatID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM minecrafters WHERE chat_id = $1`, int64(chatID))
	if err != nil {
		return false, fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete account rows: %w", err)
	}
	return n > 0, nil
}

// mapUniqueViolation decides which linking invariant a 23505 hit.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pqErr.Constraint, "chat_id"):
		return ErrChatAlreadyLinked
	case strings.Contains(pqErr.Constraint, "minecraft_uuid"):
		return ErrIdentityClaimed
	default:
		return nil
	}
}
