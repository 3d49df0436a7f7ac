package main

import (
	"context"
	"fmt"
	"os"

	"github.com/astra-quant/recallbot/internal/config"
	"github.com/astra-quant/recallbot/internal/engine"
	"github.com/astra-quant/recallbot/internal/execution"
	"github.com/astra-quant/recallbot/internal/journal"
	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/market"
	"github.com/astra-quant/recallbot/internal/metrics"
	"github.com/astra-quant/recallbot/internal/oracle"
	"github.com/astra-quant/recallbot/internal/store"
	"github.com/astra-quant/recallbot/internal/strategy"
	"github.com/astra-quant/recallbot/pkg/marketdata"
	"github.com/astra-quant/recallbot/pkg/schema"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	if err := loadEnvFile(cmd.String("env-file")); err != nil {
		return err
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	positions := store.New(cfg.Store.Path, log)
	if err := positions.Load(); err != nil {
		return err
	}

	recallOpts := []execution.RecallOption{}
	if cfg.Recall.BaseURL != "" {
		recallOpts = append(recallOpts, execution.WithRecallBaseURL(cfg.Recall.BaseURL))
	}

	recall, err := execution.NewRecallClient(cfg.Recall.APIKey, log, recallOpts...)
	if err != nil {
		return err
	}

	var trades *journal.Journal

	if cfg.Journal.Path != "" {
		trades, err = journal.Open(cfg.Journal.Path, log)
		if err != nil {
			return err
		}
		defer func() { _ = trades.Close() }()
	}

	if cmd.Bool("close-all") {
		closed, err := engine.CloseAll(ctx, positions, recall, trades, log)
		log.Info("close-all finished", zap.Int("closed", closed))

		return err
	}

	coingecko := market.NewCoinGeckoClient(cfg.Market.CoinGeckoAPIKey, log)
	dexscreener := market.NewDexScreenerClient(log)
	advisor := oracle.New(cfg.Oracle.URL, cfg.Oracle.APIKey, log)

	policies, err := strategy.FromConfigs(cfg.Strategies)
	if err != nil {
		return err
	}

	meters := metrics.New()

	engines := make([]*engine.Engine, 0, len(policies))

	for _, policy := range policies {
		eng, err := engine.New(policy, engine.Deps{
			Market:    coingecko,
			Discovery: dexscreener,
			Execution: recall,
			Oracle:    advisor,
			Store:     positions,
			Journal:   trades,
			Metrics:   meters,
			Logger:    log,
		})
		if err != nil {
			return err
		}

		engines = append(engines, eng)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.Metrics.Listen != "" {
		ops := metrics.NewServer(cfg.Metrics.Listen, meters, positions, log)
		group.Go(func() error {
			return ops.Start(groupCtx)
		})
	}

	for _, eng := range engines {
		group.Go(func() error {
			return eng.Run(groupCtx)
		})
	}

	log.Info("recallbot running", zap.Int("strategies", len(engines)))

	return group.Wait()
}

func backfillAction(ctx context.Context, cmd *cli.Command) error {
	bar := progressbar.Default(100, "backfill")

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(cmd.String("provider")),
		DataPath:      cmd.String("data"),
		PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
	}, func(current, total float64, message string) {
		if total > 0 {
			_ = bar.Set(int(current / total * 100))
		}

		bar.Describe(message)
	})
	if err != nil {
		return err
	}

	path, err := client.Backfill(ctx, marketdata.BackfillParams{
		Symbol:     cmd.String("symbol"),
		StartDate:  cmd.Timestamp("start"),
		EndDate:    cmd.Timestamp("end"),
		Multiplier: int(cmd.Int("multiplier")),
		Timespan:   models.Timespan(cmd.String("timespan")),
	})
	if err != nil {
		return err
	}

	_ = bar.Finish()
	fmt.Println(path)

	return nil
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	out, err := schema.ToJSONSchema(config.Config{})
	if err != nil {
		return err
	}

	fmt.Println(out)

	return nil
}
