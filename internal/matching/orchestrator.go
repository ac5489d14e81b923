package matching

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/candidate-matcher/internal/assessment"
	"github.com/spigell/candidate-matcher/internal/candidate"
	"github.com/spigell/candidate-matcher/internal/filtering"
	"github.com/spigell/candidate-matcher/internal/geo"
	"github.com/spigell/candidate-matcher/internal/jobs"
	"github.com/spigell/candidate-matcher/internal/logger"
)

// ErrInvalidJob marks a requisition that breaks the job-board contract. It
// fails the whole run instead of a single branch.
var ErrInvalidJob = errors.New("invalid requisition")

// Assessor produces the assessment of one résumé against one requisition.
// A returned error means the completion call itself failed.
type Assessor interface {
	Assess(ctx context.Context, resumeText string, job *jobs.Requisition) (*assessment.Assessment, error)
}

// DistanceEstimator computes the commute between two addresses.
type DistanceEstimator interface {
	Estimate(ctx context.Context, candidateAddress, jobAddress string) (*geo.CommuteEstimate, error)
}

type Config struct {
	// NotificationThreshold is the minimum score of a notification-worthy result.
	NotificationThreshold int
	// CompletionTimeout bounds each completion branch. Zero disables it.
	CompletionTimeout time.Duration
	// NotifiedFile holds pairs notified by earlier runs. Empty disables the check.
	NotifiedFile string
}

// Orchestrator fans one candidate out over a set of requisitions.
type Orchestrator struct {
	cfg      Config
	assessor Assessor
	distance DistanceEstimator
	logger   *zap.Logger
}

// New creates an orchestrator. A nil distance estimator leaves every commute absent.
func New(cfg Config, assessor Assessor, distance DistanceEstimator, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		assessor: assessor,
		distance: distance,
		logger:   logger.OrNop(log),
	}
}

// Filters returns the steps selecting the notification-worthy subset.
func (o *Orchestrator) Filters() []filtering.Filter {
	return []filtering.Filter{
		filtering.NewScored(o.logger),
		filtering.NewMinimumScore(o.cfg.NotificationThreshold, o.logger),
		filtering.NewNotifiedHistory(o.cfg.NotifiedFile, o.logger),
	}
}

// Run assesses the profile against every requisition concurrently and waits
// for all branches. A failing branch is recorded on its own result and never
// affects its siblings. Results are ranked by score, ties keep input order.
func (o *Orchestrator) Run(ctx context.Context, profile *candidate.Profile, reqs []*jobs.Requisition) (*Run, error) {
	if o.assessor == nil {
		return nil, errors.New("orchestrator has no assessor")
	}
	if profile == nil {
		return nil, errors.New("candidate profile is required")
	}
	for i, job := range reqs {
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("%w at position %d: %v", ErrInvalidJob, i, err)
		}
	}

	run := &Run{
		ID:        uuid.NewString(),
		Candidate: profile,
		StartedAt: time.Now().UTC(),
	}
	log := logger.WithFields(o.logger, logger.RunFields(run.ID, profile.Key())...)

	log.Info("matching started", zap.Int("jobs", len(reqs)))

	results := make([]*Result, len(reqs))
	var wg sync.WaitGroup
	for i, job := range reqs {
		wg.Add(1)
		go func(i int, job *jobs.Requisition) {
			defer wg.Done()
			results[i] = o.match(ctx, log, profile, job)
		}(i, job)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Assessment.Score > results[j].Assessment.Score
	})
	run.Results = results

	notify, err := filtering.Run(ctx, log, o.Filters(), run.matches())
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	for _, m := range notify {
		run.Notify = append(run.Notify, m.(*Result))
	}

	run.Duration = time.Since(run.StartedAt)

	log.Info("matching completed",
		zap.Int("results", len(run.Results)),
		zap.Int("failed", run.Failed()),
		zap.Int("notify", len(run.Notify)),
		zap.Duration("took", run.Duration),
	)

	return run, nil
}

// match runs the assessment and the commute estimate of one requisition in parallel.
func (o *Orchestrator) match(ctx context.Context, log *zap.Logger, profile *candidate.Profile, job *jobs.Requisition) *Result {
	log = log.With(zap.String(logger.FieldJobID, job.ID))
	res := &Result{Job: job, Candidate: profile.Key()}

	var (
		wg         sync.WaitGroup
		commute    *geo.CommuteEstimate
		commuteErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		commute, commuteErr = o.estimate(ctx, log, profile.Address, job.JobSiteAddress)
	}()

	res.Assessment = o.assess(ctx, log, profile.ResumeText, job)

	wg.Wait()
	res.Commute, res.CommuteErr = commute, commuteErr

	return res
}

func (o *Orchestrator) assess(ctx context.Context, log *zap.Logger, resumeText string, job *jobs.Requisition) (a *assessment.Assessment) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("assessment panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			a = assessment.Failed(fmt.Errorf("assessment panicked: %v", r))
		}
	}()

	if o.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.CompletionTimeout)
		defer cancel()
	}

	a, err := o.assessor.Assess(ctx, resumeText, job)
	if err != nil {
		log.Warn("assessment failed", zap.Error(err))
		return assessment.Failed(err)
	}
	if a == nil {
		return assessment.Failed(errors.New("assessor returned no assessment"))
	}

	log.Debug("assessment ready", zap.Int("match_score", a.Score), zap.String("parse_stage", a.Stage))
	return a
}

// estimate returns a nil estimate without error when the commute is not computable.
func (o *Orchestrator) estimate(ctx context.Context, log *zap.Logger, candidateAddress, jobAddress string) (est *geo.CommuteEstimate, err error) {
	if o.distance == nil {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("commute estimate panicked", zap.Any("panic", r))
			est, err = nil, fmt.Errorf("commute estimate panicked: %v", r)
		}
	}()

	est, err = o.distance.Estimate(ctx, candidateAddress, jobAddress)
	if errors.Is(err, geo.ErrAddressMissing) {
		log.Debug("commute not computable", zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return est, nil
}
