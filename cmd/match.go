package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/candidate-matcher/internal/assessment"
	"github.com/spigell/candidate-matcher/internal/candidate"
	"github.com/spigell/candidate-matcher/internal/filtering"
	"github.com/spigell/candidate-matcher/internal/jobs"
	"github.com/spigell/candidate-matcher/internal/logger"
	"github.com/spigell/candidate-matcher/internal/matching"
	"github.com/spigell/candidate-matcher/internal/utils"
)

const (
	PromptRecord         = "Record notifications"
	PromptNo             = "Exit"
	PromptReportByLevel  = "Report by level"
	PromptNotifyList     = "Show notification-worthy matches"
	PromptReportBySector = "Report requisitions by sector"
	PromptResultsToFile  = "Dump results to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptRecord, PromptNo, PromptReportByLevel, PromptNotifyList, PromptReportBySector, PromptResultsToFile},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a plain-text resume against every active requisition",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("resume", "r", "", "plain-text resume file, - reads stdin")
	matchCmd.Flags().String("jobs", "", "requisition catalog (yaml or json). Overrides jobs-file")
	matchCmd.Flags().StringSlice("job", nil, "only match the given requisition ids")
	matchCmd.Flags().String("id", "", "candidate id. Defaults to the email found in the resume")
	matchCmd.Flags().String("name", "", "candidate name. Overrides the extracted one")
	matchCmd.Flags().String("address", "", "candidate home address. Overrides the extracted one")
	matchCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation, record notifications right away")
	matchCmd.Flags().StringP("notified-file", "n", "", "file with already notified matches. Default is unset.")

	matchCmd.MarkFlagRequired("resume")

	viper.BindPFlag("jobs-file", matchCmd.Flags().Lookup("jobs"))
	viper.BindPFlag("matching.notified-file", matchCmd.Flags().Lookup("notified-file"))
}

func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the candidate-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	profile, err := loadProfile(cmd)
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err))
	}

	logger.Info("candidate profile extracted",
		zap.String("name", profile.Name),
		zap.String("email", profile.Email),
		zap.Bool("has_address", profile.Address != ""),
	)
	if profile.Address != "" && !candidate.LooksLikeAddress(profile.Address) {
		logger.Warn("candidate address has no state and ZIP code, commute estimates may be unreliable",
			zap.String("address", profile.Address),
		)
	}

	catalog, err := loadRequisitions(cmd, config, logger)
	if err != nil {
		logger.Fatal("loading requisitions", zap.Error(err))
	}

	if catalog.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no active requisitions"))
		return
	}

	completer, err := newCompleter(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the completion backend", zap.Error(err))
	}

	assessor := assessment.NewAssessor(completer, nil, logger, config.AI.Gemini.MaxLogLength)

	var distance matching.DistanceEstimator
	engine, err := newGeoEngine(ctx, config.Geo, logger)
	if err != nil {
		logger.Warn("commute estimates disabled", zap.Error(err))
	} else {
		distance = engine
	}

	orchestrator := matching.New(matching.Config{
		NotificationThreshold: config.Matching.NotificationThreshold,
		CompletionTimeout:     config.AI.Timeout,
		NotifiedFile:          config.Matching.NotifiedFile,
	}, assessor, distance, logger)

	run, err := orchestrator.Run(ctx, profile, catalog.Items)
	if err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}
	if engine != nil {
		logCacheStats(engine, logger)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run.Report()); err != nil {
		logger.Fatal("writing results", zap.Error(err))
	}

	if len(run.Notify) == 0 {
		logger.Info("exiting", zap.String("reason", "no matches above the notification threshold"))
		return
	}

	action := PromptRecord
	for {
		var err error
		if cmd.Flag("yes").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("notification-worthy matches", zap.Int("count", len(run.Notify)))

		if err := handleAction(action, logger, config, run, catalog); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, run *matching.Run, catalog *jobs.Requisitions) error {
	switch action {
	case PromptRecord:
		path := strings.TrimSpace(config.Matching.NotifiedFile)
		if path == "" {
			logger.Info("exiting", zap.String("reason", "notified file is not configured, nothing to record"))
			return errExit
		}
		if err := filtering.Record(path, run.NotifyMatches()); err != nil {
			return fmt.Errorf("record notifications: %w", err)
		}
		logger.Info("notifications recorded", zap.String("notified_file", path), zap.Int("count", len(run.Notify)))
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportByLevel:
		pretty, _ := json.MarshalIndent(run.ReportByLevel(), "", "  ")
		logger.Info(string(pretty), zap.Int("results count", run.Len()))
		return nil
	case PromptNotifyList:
		for _, res := range run.Notify {
			level := assessment.Interpretation(res.Assessment.Score)
			logger.Info("notify",
				zap.String("job_id", res.Job.ID),
				zap.String("job_title", res.Job.Title),
				zap.Int("match_score", res.Assessment.Score),
				zap.String("level", level.Name),
				zap.String("recommendation", level.Recommendation),
			)
		}
		return nil
	case PromptReportBySector:
		pretty, _ := json.MarshalIndent(catalog.ReportBySector(), "", "  ")
		logger.Info(string(pretty), zap.Int("requisitions count", catalog.Len()))
		return nil
	case PromptResultsToFile:
		filename, err := run.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// loadProfile reads the resume and applies the flag overrides.
func loadProfile(cmd *cobra.Command) (*candidate.Profile, error) {
	path, _ := cmd.Flags().GetString("resume")

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("resume %s is empty", path)
	}

	profile := candidate.ExtractProfile(text)

	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	address, _ := cmd.Flags().GetString("address")

	profile.ID = strings.TrimSpace(id)
	profile.Name = utils.FirstNonEmpty(name, profile.Name)
	profile.Address = utils.FirstNonEmpty(address, profile.Address)

	if profile.Key() == "" {
		return nil, errors.New("candidate has no id and no email was found in the resume (use --id)")
	}

	return profile, nil
}

// loadRequisitions returns the active requisitions, narrowed to --job when given.
func loadRequisitions(cmd *cobra.Command, config *Config, logger *zap.Logger) (*jobs.Requisitions, error) {
	catalog, err := jobs.Load(config.JobsFile)
	if err != nil {
		return nil, err
	}

	active := catalog.Active()
	logger.Info("requisitions loaded",
		zap.String("jobs_file", config.JobsFile),
		zap.Int("total", catalog.Len()),
		zap.Int("active", active.Len()),
	)

	ids, _ := cmd.Flags().GetStringSlice("job")
	if len(ids) > 0 {
		if unknown := active.Only(ids); len(unknown) > 0 {
			logger.Warn("requested requisitions are not active or unknown", zap.Strings("job_ids", unknown))
		}
	}
	logger.Debug("requisitions selected", zap.Strings("job_ids", active.IDs()))

	return active, nil
}
