package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ttstream/internal/application/usecase/marketdata"
	"ttstream/internal/infrastructure/config"
	"ttstream/internal/infrastructure/logger"
	"ttstream/internal/infrastructure/svc"
)

func main() {
	logger.Setup("info")

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	symbolsFlag := flag.String("symbols", "", "comma separated symbols, overrides symbols.list")
	eventsFlag := flag.String("events", "", "comma separated event types, overrides streamer.events")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env not found, using process environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	if *symbolsFlag != "" {
		cfg.Symbols.List = config.NormalizeSymbols(strings.Split(*symbolsFlag, ","))
	}
	if *eventsFlag != "" {
		cfg.Streamer.Events = strings.Split(*eventsFlag, ",")
	}
	events, err := config.ParseEvents(cfg.Streamer.Events)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid events")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service context initialization failed")
	}
	defer sc.Close()

	if err := sc.Login(ctx); err != nil {
		log.Error().Err(err).Msg("login failed")
		sc.Close()
		os.Exit(1)
	}

	service := marketdata.NewService(sc.BuildMarketDataServiceDeps())
	handlers := marketdata.SinkHandlers(sc.Sink, events)

	log.Info().
		Str("config", *configPath).
		Strs("symbols", cfg.Symbols.List).
		Int("event_types", len(events)).
		Bool("sandbox", cfg.API.Sandbox).
		Msg("ttstream started")

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", sc.MetricsHandler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		err := service.Run(gctx, cfg.Symbols.List, handlers)
		if err == nil && ctx.Err() == nil {
			// stream ended on its own; stop the metrics server too
			return errors.New("stream closed by server")
		}
		return err
	})

	runErr := g.Wait()

	logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := sc.Logout(logoutCtx); err != nil {
		log.Warn().Err(err).Msg("logout failed")
	}
	cancel()

	if runErr != nil && ctx.Err() == nil {
		log.Error().Err(runErr).Msg("ttstream exited")
		sc.Close()
		os.Exit(1)
	}
	log.Info().Msg("ttstream stopped")
}
