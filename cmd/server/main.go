package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vyleayush/Talksy/internal/blob"
	"github.com/vyleayush/Talksy/internal/chat"
	"github.com/vyleayush/Talksy/internal/config"
	clog "github.com/vyleayush/Talksy/internal/log"
	"github.com/vyleayush/Talksy/internal/server"
	"github.com/vyleayush/Talksy/internal/ws"
)

func main() {
	// main 负责加载配置、初始化日志、组装聊天核心并启动 HTTP 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)

	store, err := blob.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("init upload store")
	}

	hub := ws.NewHub()
	room := chat.NewRoom(cfg, hub)
	r := server.SetupRouter(cfg, hub, room, store)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	room.Close()
}
