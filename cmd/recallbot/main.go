package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astra-quant/recallbot/internal/version"
	"github.com/joho/godotenv"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "recallbot",
		Usage:   "Autonomous trading bots for the Recall Network competition",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			runCommand(),
			backfillCommand(),
			schemaCommand(),
			versionCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the configured strategy bots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Optional .env file loaded before the config is parsed",
			},
			&cli.BoolFlag{
				Name:  "close-all",
				Usage: "Liquidate every open position and exit",
			},
		},
		Action: runAction,
	}
}

func backfillCommand() *cli.Command {
	return &cli.Command{
		Name:  "backfill",
		Usage: "Download historical candles into a local parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Symbol to download (e.g. ETHUSDT for binance, X:ETHUSD for polygon)",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value: time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Candle provider (binance or polygon)",
				Value:   "binance",
			},
			&cli.StringFlag{
				Name:    "timespan",
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("Bar timespan (%s, %s, %s)", models.Minute, models.Hour, models.Day),
				Value:   string(models.Day),
			},
			&cli.IntFlag{
				Name:  "multiplier",
				Usage: "Bar multiplier (e.g. 15 with minute for 15m bars)",
				Value: 1,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Output directory",
				Value:   "data",
			},
		},
		Action: backfillAction,
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:   "schema",
		Usage:  "Print the JSON schema of the configuration file",
		Action: schemaAction,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Println(version.GetVersion())

			return nil
		},
	}
}

// loadEnvFile loads the .env file when given, silently skipping a missing
// default file.
func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}

		return nil
	}

	return godotenv.Load(path)
}
