package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/MC-Whitelist-bot/internal/config"
	"github.com/park285/MC-Whitelist-bot/internal/rcon"
)

// Dials every configured whitelist server, authenticates, and runs a
// harmless "list" so operators can verify fleet reachability before
// blaming the bot.
func main() {
	servers, err := config.ParseServerList(os.Getenv("WHITELIST_SERVERS"))
	if err != nil {
		log.Fatalf("WHITELIST_SERVERS: %v", err)
	}
	if len(servers) == 0 {
		log.Fatal("WHITELIST_SERVERS is required")
	}

	timeout := 5 * time.Second
	if v := os.Getenv("RCON_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			timeout = d
		}
	}

	failed := 0
	for i, target := range servers {
		ctx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
		sess, err := rcon.Dial(ctx, target.Addr, target.Password, timeout)
		cancel()
		if err != nil {
			fmt.Printf("[%d] %s: FAIL (%v)\n", i, target.Addr, err)
			failed++
			continue
		}
		reply, err := sess.Command("list")
		_ = sess.Close()
		if err != nil {
			fmt.Printf("[%d] %s: FAIL (%v)\n", i, target.Addr, err)
			failed++
			continue
		}
		fmt.Printf("[%d] %s: OK (%s)\n", i, target.Addr, reply)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
