package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/candidate-matcher/internal/geo"
	"github.com/spigell/candidate-matcher/internal/logger"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode ADDRESS [JOB_SITE_ADDRESS]",
	Short: "Resolve an address, or estimate the commute between two addresses",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(_ *cobra.Command, args []string) {
		geocode(args)
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}

func geocode(args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	engine, err := newGeoEngine(ctx, config.Geo, logger)
	if err != nil {
		logger.Fatal("building the distance engine", zap.Error(err))
	}

	var out any
	if len(args) == 1 {
		normalized := geo.NormalizeAddress(args[0])
		loc, err := engine.Resolve(ctx, args[0])
		if err != nil {
			logger.Fatal("geocoding failed", zap.String("address", normalized), zap.Error(err))
		}
		out = struct {
			Address    string `json:"address"`
			Normalized string `json:"normalized"`
			*geo.Location
		}{args[0], normalized, loc}
	} else {
		est, err := engine.Estimate(ctx, args[0], args[1])
		if err != nil {
			logger.Fatal("commute estimate failed", zap.Error(err))
		}
		out = est
	}
	logCacheStats(engine, logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
}
