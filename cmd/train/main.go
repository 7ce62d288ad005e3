package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/tankintel/internal/adapters"
	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/training"
	"github.com/aristath/tankintel/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		country string
		kind    string
		seed    int64
	)

	root := &cobra.Command{
		Use:   "train",
		Short: "Train pitch outcome models from configured datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

			countries, err := config.LoadRegistry(cfg.ConfigsDir)
			if err != nil {
				return err
			}
			adapterReg, err := adapters.NewRegistry(countries)
			if err != nil {
				return err
			}
			store := artifacts.NewStore(cfg.ModelsDir)

			trainer := training.NewTrainer(countries, adapterReg, store, cfg.DataDir, log,
				training.WithSeed(seed))

			ctx := cmd.Context()
			switch {
			case country == "":
				reports := trainer.TrainAllCountries(ctx)
				for _, report := range reports {
					printReport(report)
				}
				return nil
			case kind == "":
				reports, err := trainer.TrainAll(ctx, country)
				for _, report := range reports {
					printReport(report)
				}
				return err
			default:
				if !validKind(kind) {
					return fmt.Errorf("unknown training kind %q (valid: %s)",
						kind, strings.Join(config.Kinds(), ", "))
				}
				report, err := trainer.Train(ctx, country, kind)
				if err != nil {
					return err
				}
				printReport(report)
				return nil
			}
		},
	}

	root.Flags().StringVar(&country, "country", "", "country to train (default: all configured)")
	root.Flags().StringVar(&kind, "kind", "", "model kind to train (default: all kinds)")
	root.Flags().Int64Var(&seed, "seed", 42, "random seed for splits and ensembles")

	return root.Execute()
}

func printReport(report *training.Report) {
	if report == nil {
		return
	}
	fmt.Printf("%s/%s: best=%s %s=%.4f rows=%d\n",
		report.Country, report.Kind, report.Best, report.Metric, report.Score, report.Rows)
}

func validKind(kind string) bool {
	for _, k := range config.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
