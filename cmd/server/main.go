package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"arenaserver/internal/api"
	"arenaserver/internal/chatrouter"
	"arenaserver/internal/config"
	"arenaserver/internal/gateway"
	"arenaserver/internal/identity"
	"arenaserver/internal/obs"
	"arenaserver/internal/ratelimit"
	"arenaserver/internal/registry"
	"arenaserver/internal/statssink"
)

func main() {
	development := os.Getenv("ENV") != "production"
	logger, err := obs.Init(development)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	resolver := buildResolver()
	sink := buildStatsSink()
	defer func() {
		if q, ok := sink.(*statssink.QueuedSink); ok {
			q.Stop()
		}
	}()

	// chatrouter.New needs a Broadcaster and the hub needs a chat router, so
	// the hub is built first with no chat router and the router is wired
	// back in once it exists; nothing dispatches to either until Start below.
	registries := make(map[config.Mode]*registry.Registry)
	hub := gateway.NewHub(cfg, registries, nil, resolver)
	chat := chatrouter.New(cfg.Chat, hub)
	hub.SetChat(chat)

	for _, mode := range []config.Mode{config.ModeBoss, config.ModePVP, config.ModeKOZ, config.ModeSlither} {
		registries[mode] = registry.New(mode, cfg, hub, sink)
	}

	scheduler := gateway.NewScheduler(hub)
	scheduler.Start()

	ipLimiter := ratelimit.NewIPLimiter(ratelimit.DefaultIPConfig)
	srv := api.NewServer(cfg.Server.Addr, hub, registries, ipLimiter)

	go func() {
		obs.L().Raw().Info("arena server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	obs.L().Raw().Info("shutting down")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obs.L().Raw().Warn("http server shutdown", zap.Error(err))
	}
}

func buildResolver() identity.Resolver {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return identity.GuestResolver{}
	}
	return identity.NewJWTResolver([]byte(secret))
}

func buildStatsSink() statssink.Sink {
	url := os.Getenv("STATS_FORWARD_URL")
	if url == "" {
		return statssink.NoopSink{}
	}
	return statssink.NewQueuedSink(httpForwarder{url: url}, 256)
}

// httpForwarder posts completed match summaries to an external collector.
// It's the only concrete statssink.Forwarder this deployment ships; wired
// only when STATS_FORWARD_URL is set, otherwise NoopSink handles it.
type httpForwarder struct {
	url    string
	client http.Client
}

func (f httpForwarder) Forward(ctx context.Context, summary statssink.MatchSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("stats forward: unexpected status %d", resp.StatusCode)
	}
	return nil
}
