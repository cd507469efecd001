package domain

import "time"

// Account is one active chat↔Minecraft link. Rows are never updated in
// place; unlink followed by a fresh link is the only way to change a
// mapping.
type Account struct {
	ID            int64
	ChatID        uint64
	MinecraftUUID string
	MinecraftName string
	LinkedAt      time.Time
}

// ServerTarget is one whitelist-bearing game server from configuration.
type ServerTarget struct {
	Addr     string
	Password string
}
