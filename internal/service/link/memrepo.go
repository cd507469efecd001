package link

import (
	"context"
	"sync"
	"time"

	"github.com/park285/MC-Whitelist-bot/internal/domain"
)

// memrepo is a development-only in-memory repository used when no DB is
// configured. It enforces the same two uniqueness constraints as the
// postgres schema under a single mutex.
type memrepo struct {
	mu sync.Mutex

	nextID int64

	byChatID map[uint64]*domain.Account
	byUUID   map[string]uint64 // minecraft uuid -> owning chat id
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byChatID: make(map[uint64]*domain.Account),
		byUUID:   make(map[string]uint64),
	}
}

func (m *memrepo) Insert(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return ErrChatAlreadyLinked
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byChatID[account.ChatID]; exists {
		return ErrChatAlreadyLinked
	}
	if _, exists := m.byUUID[account.MinecraftUUID]; exists {
		return ErrIdentityClaimed
	}

	m.nextID++
	account.ID = m.nextID
	if account.LinkedAt.IsZero() {
		account.LinkedAt = time.Now()
	}
	stored := *account
	m.byChatID[account.ChatID] = &stored
	m.byUUID[account.MinecraftUUID] = account.ChatID
	return nil
}

func (m *memrepo) GetByChatID(ctx context.Context, chatID uint64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.byChatID[chatID]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (m *memrepo) DeleteByChatID(ctx context.Context, chatID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.byChatID[chatID]
	if !ok {
		return false, nil
	}
	delete(m.byChatID, chatID)
	delete(m.byUUID, account.MinecraftUUID)
	return true, nil
}
