package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sukalov/chordbook/internal/bot"
	"github.com/sukalov/chordbook/internal/bot/admin"
	"github.com/sukalov/chordbook/internal/bot/client"
	"github.com/sukalov/chordbook/internal/bot/common"
	"github.com/sukalov/chordbook/internal/logger"
	"github.com/sukalov/chordbook/internal/lyrics"
	"github.com/sukalov/chordbook/internal/redis"
	"github.com/sukalov/chordbook/internal/state"
	"github.com/sukalov/chordbook/internal/store"
	"github.com/sukalov/chordbook/internal/utils"
)

const sessionTTL = 30 * 24 * time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := utils.LoadEnv([]string{"BOT_TOKEN", "CHORDBOOK_STORE"})
	if err != nil {
		log.Fatalf("required env missing: %v", err)
	}

	chordBot, err := bot.New("chordbot", env["BOT_TOKEN"])
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}
	if err := logger.Init(chordBot); err != nil {
		logger.Info(fmt.Sprintf("log channel disabled: %v", err))
	}

	songs, err := store.Open(ctx, env["CHORDBOOK_STORE"], utils.Getenv("TURSO_AUTH_TOKEN", ""))
	if err != nil {
		log.Fatalf("failed to open song store: %v", err)
	}
	defer songs.Close()

	var (
		cache        lyrics.Cache
		sessionStore state.SessionStore
		counter      common.SongCounter
		counts       admin.SongCounts
	)
	if redisURL := utils.Getenv("REDIS_URL", ""); redisURL != "" {
		manager, err := redis.NewDBManager(redis.Config{URL: redisURL, Password: utils.Getenv("REDIS_PASSWORD", "")})
		if err != nil {
			log.Fatalf("failed to configure redis: %v", err)
		}
		if err := manager.Ping(ctx); err != nil {
			log.Fatalf("failed to reach redis: %v", err)
		}
		defer manager.Close()
		cache, sessionStore, counter, counts = manager, manager, manager, manager
	}

	service := lyrics.NewService(songs, cache, utils.GetDuration("CACHE_TTL", 24*time.Hour))

	userManager := state.NewStateManager(sessionStore)
	if err := userManager.Init(ctx); err != nil {
		log.Fatalf("failed to load sessions: %v", err)
	}
	go expireSessions(ctx, userManager)

	var (
		registry client.UserRegistry
		lookup   admin.UserLookup
	)
	if songs.Users != nil {
		registry, lookup = songs.Users, songs.Users
	}

	commonHandlers := common.NewCommonHandlers(service, userManager, counter)
	handlers := client.GetHandlers(commonHandlers, userManager, registry)
	adminHandlers := admin.NewAdminHandlers(service, userManager, songs, lookup, counts, utils.SplitCSV(utils.Getenv("ADMIN_USERNAMES", "")))
	admin.SetupHandlers(chordBot, handlers, adminHandlers)

	logger.Success(fmt.Sprintf("chordbot started with %s store", songs.Kind))

	<-ctx.Done()
	chordBot.Stop()
	logger.Info("chordbot stopped")
}

func expireSessions(ctx context.Context, userManager *state.StateManager) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := userManager.Expire(ctx, sessionTTL)
			if err != nil {
				logger.Error(fmt.Sprintf("failed to expire sessions: %v", err))
				continue
			}
			if removed > 0 {
				logger.Debug(fmt.Sprintf("expired %d sessions", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}
