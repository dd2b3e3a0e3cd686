package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/oomaltseva/telegram-bot/db"
	"github.com/oomaltseva/telegram-bot/internal/bot"
	"github.com/oomaltseva/telegram-bot/internal/broadcast"
	"github.com/oomaltseva/telegram-bot/internal/catalog"
	"github.com/oomaltseva/telegram-bot/internal/logutil"
	"github.com/oomaltseva/telegram-bot/internal/resolver"
	"github.com/oomaltseva/telegram-bot/internal/store"
	"github.com/oomaltseva/telegram-bot/internal/telegram"
	"github.com/oomaltseva/telegram-bot/internal/tickets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot with long polling and a health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-token", "telegram.token"))
			if token == "" {
				return fmt.Errorf("missing telegram.token (set via --telegram-token or %s_TELEGRAM_TOKEN)", envPrefix)
			}
			archiveChatID := flagOrViperInt64(cmd, "archive-chat-id", "telegram.archive_chat_id")
			admins, err := adminIDsFromViper()
			if err != nil {
				return err
			}
			if len(admins) == 0 {
				logger.Warn("no_admins_configured")
			}

			dbCfg := db.DefaultConfig()
			dbCfg.Driver = flagOrViperString(cmd, "db-driver", "database.driver")
			dbCfg.DSN = flagOrViperString(cmd, "db-dsn", "database.dsn")
			gdb, err := db.Open(dbCfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := db.AutoMigrate(gdb); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			if err := db.SeedFolders(gdb, nil, logger); err != nil {
				return fmt.Errorf("seed folders: %w", err)
			}

			st, err := store.New(store.Options{DB: gdb, Logger: logger})
			if err != nil {
				return err
			}

			client, err := telegram.New(telegram.Options{
				BaseURL: viper.GetString("telegram.base_url"),
				Token:   token,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			res, err := resolver.New(resolver.Options{Users: st, Logger: logger})
			if err != nil {
				return err
			}
			desk, err := tickets.New(tickets.Options{Store: st, Logger: logger})
			if err != nil {
				return err
			}
			library, err := catalog.New(catalog.Options{
				Store:         st,
				Copier:        client,
				ArchiveChatID: archiveChatID,
				Logger:        logger,
			})
			if err != nil {
				return err
			}
			engine, err := broadcast.NewEngine(broadcast.Options{
				Sender:        client,
				Posts:         st,
				Users:         st,
				ArchiveChatID: archiveChatID,
				SendDelay:     viper.GetDuration("broadcast.send_delay"),
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			b, err := bot.New(bot.Options{
				API:           client,
				Users:         st,
				Library:       library,
				Tickets:       desk,
				Resolver:      res,
				Broadcaster:   engine,
				Admins:        admins,
				AdminTitles:   adminTitlesFromViper(),
				ArchiveChatID: archiveChatID,
				Logger:        logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			me, err := client.GetMe(ctx)
			if err != nil {
				return fmt.Errorf("telegram getMe: %w", err)
			}
			logger.Info("bot_identified", "username", me.Username, "id", me.ID)

			if viper.GetBool("telegram.drop_pending") {
				if err := client.DeleteWebhook(ctx, true); err != nil {
					logger.Warn("delete_webhook_failed", "error", err.Error())
				}
			}

			healthAddr := strings.TrimSpace(viper.GetString("health.addr"))
			var healthSrv *http.Server
			if healthAddr != "" {
				healthSrv = startHealthServer(healthAddr, logger)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = healthSrv.Shutdown(shutdownCtx)
				}()
			}

			pollTimeout := viper.GetDuration("telegram.poll_timeout")
			logger.Info("poll_loop_started", "timeout", pollTimeout.String())
			return pollLoop(ctx, client, b, pollTimeout, logger)
		},
	}

	cmd.Flags().String("telegram-token", "", "Telegram bot token.")
	cmd.Flags().Int64("archive-chat-id", 0, "Archive channel chat id for broadcast content.")
	cmd.Flags().String("db-driver", "sqlite", "Database driver (sqlite or postgres).")
	cmd.Flags().String("db-dsn", "", "Database DSN (file path for sqlite).")
	return cmd
}

// pollLoop fetches updates until ctx is cancelled. Transport errors back
// off briefly instead of spinning.
func pollLoop(ctx context.Context, client *telegram.Client, b *bot.Bot, timeout time.Duration, logger *slog.Logger) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			logger.Info("poll_loop_stopped")
			return nil
		}
		updates, next, err := client.GetUpdates(ctx, offset, timeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			logger.Error("get_updates_failed", "error", err.Error())
			select {
			case <-ctx.Done():
			case <-time.After(3 * time.Second):
			}
			continue
		}
		offset = next
		for _, u := range updates {
			b.HandleUpdate(ctx, u)
		}
	}
}

func startHealthServer(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("health_server_started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health_server_failed", "error", err.Error())
		}
	}()
	return srv
}

func adminIDsFromViper() ([]int64, error) {
	raw := viper.GetStringSlice("telegram.admins")
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram.admins entry %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func adminTitlesFromViper() map[int64]string {
	raw := viper.GetStringMapString("telegram.admin_titles")
	titles := make(map[int64]string, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			continue
		}
		titles[id] = v
	}
	return titles
}
