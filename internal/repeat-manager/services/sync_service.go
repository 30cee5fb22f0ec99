package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"repeat-task-service/internal/repeat-manager/events"
	"repeat-task-service/internal/repeat-manager/recurrence"
	"repeat-task-service/internal/repeat-manager/store"
)

const DefaultCreateConcurrency = 4

// InstancePublisher announces instances after they are created.
type InstancePublisher interface {
	PublishInstanceCreated(ctx context.Context, payload events.InstanceCreatedPayload) error
}

// InstanceValidator checks instance properties before submission.
type InstanceValidator interface {
	Validate(v any) error
}

// InstanceResult is the outcome of submitting one instance.
type InstanceResult struct {
	TemplateID string          `json:"template_id"`
	InstanceID string          `json:"instance_id,omitempty"`
	DoDate     recurrence.Date `json:"do_date"`
	Error      string          `json:"error,omitempty"`
}

// Report summarizes one sync cycle.
type Report struct {
	RunID        string           `json:"run_id"`
	Date         recurrence.Date  `json:"date"`
	StartedAt    time.Time        `json:"started_at"`
	QueryError   string           `json:"query_error,omitempty"`
	Queried      int              `json:"queried"`
	DecodeErrors int              `json:"decode_errors"`
	Due          int              `json:"due"`
	Created      int              `json:"created"`
	Failed       int              `json:"failed"`
	Duration     time.Duration    `json:"duration"`
	Results      []InstanceResult `json:"results"`
}

// QueryFailed reports whether the cycle could not read templates.
func (r Report) QueryFailed() bool { return r.QueryError != "" }

// SyncService runs the query, evaluate, create cycle against a RecordStore.
type SyncService struct {
	store       store.RecordStore
	decoder     *recurrence.Decoder
	pipeline    *recurrence.Pipeline
	clock       recurrence.Clock
	log         zerolog.Logger
	validator   InstanceValidator
	publisher   InstancePublisher
	concurrency int
	onCycle     func(Report)
}

type SyncOption func(*SyncService)

func WithLogger(l zerolog.Logger) SyncOption {
	return func(s *SyncService) { s.log = l }
}

func WithValidator(v InstanceValidator) SyncOption {
	return func(s *SyncService) { s.validator = v }
}

func WithPublisher(p InstancePublisher) SyncOption {
	return func(s *SyncService) { s.publisher = p }
}

// WithConcurrency bounds simultaneous instance creations. n < 1 is ignored.
func WithConcurrency(n int) SyncOption {
	return func(s *SyncService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCycleHook registers fn to receive every finished report.
func WithCycleHook(fn func(Report)) SyncOption {
	return func(s *SyncService) { s.onCycle = fn }
}

// NewSyncService builds a service reading from st. Template creation dates
// and "today" are both taken on loc's calendar.
func NewSyncService(st store.RecordStore, names recurrence.PropertyNames, clock recurrence.Clock, loc *time.Location, opts ...SyncOption) *SyncService {
	s := &SyncService{
		store:       st,
		decoder:     recurrence.NewDecoder(names, loc),
		pipeline:    recurrence.NewPipeline(names),
		clock:       clock,
		log:         zerolog.Nop(),
		concurrency: DefaultCreateConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SyncService) Today() recurrence.Date { return s.clock.Today() }

// RunCycle syncs for the clock's current date.
func (s *SyncService) RunCycle(ctx context.Context) Report {
	return s.RunCycleFor(ctx, s.clock.Today())
}

// RunCycleFor syncs as if today were date. It never fails as a whole:
// query, decode and creation failures are logged and counted.
func (s *SyncService) RunCycleFor(ctx context.Context, date recurrence.Date) (report Report) {
	report = Report{
		RunID:     uuid.NewString(),
		Date:      date,
		StartedAt: time.Now(),
		Results:   []InstanceResult{},
	}
	log := s.log.With().Str("run_id", report.RunID).Str("date", date.String()).Logger()
	log.Info().Msg("sync cycle started")

	defer func() {
		report.Duration = time.Since(report.StartedAt)
		log.Info().
			Int("queried", report.Queried).
			Int("decode_errors", report.DecodeErrors).
			Int("due", report.Due).
			Int("created", report.Created).
			Int("failed", report.Failed).
			Dur("duration", report.Duration).
			Msg("sync cycle finished")
		if s.onCycle != nil {
			s.onCycle(report)
		}
	}()

	templates, decodeErrs, err := s.load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to query repeat templates")
		report.QueryError = err.Error()
		return report
	}
	report.Queried = len(templates) + len(decodeErrs)
	report.DecodeErrors = len(decodeErrs)
	for _, derr := range decodeErrs {
		log.Warn().Err(derr).Msg("skipping undecodable repeat template")
	}

	instances := s.pipeline.Run(templates, date)
	report.Due = len(instances)

	results := make([]InstanceResult, len(instances))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, inst := range instances {
		g.Go(func() error {
			results[i] = s.submit(ctx, log, report.RunID, inst)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Error != "" {
			report.Failed++
		} else {
			report.Created++
		}
	}
	report.Results = results
	return report
}

// Preview returns the instances that would be created on date, without
// creating or publishing anything.
func (s *SyncService) Preview(ctx context.Context, date recurrence.Date) ([]recurrence.Instance, error) {
	templates, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Run(templates, date), nil
}

// load reads and decodes templates. Records the store could not read are
// returned with the decode errors; only a failed query is an error.
func (s *SyncService) load(ctx context.Context) ([]recurrence.Template, []error, error) {
	records, err := s.store.QueryTemplates(ctx)
	var unreadable store.RecordErrors
	if errors.As(err, &unreadable) {
		err = nil
	}
	if err != nil {
		return nil, nil, err
	}
	templates, errs := s.decoder.DecodeAll(records)
	return templates, append([]error(unreadable), errs...), nil
}

func (s *SyncService) submit(ctx context.Context, log zerolog.Logger, runID string, inst recurrence.Instance) InstanceResult {
	res := InstanceResult{TemplateID: inst.TemplateID, DoDate: inst.DoDate}
	ilog := log.With().Str("template_id", inst.TemplateID).Logger()

	if s.validator != nil {
		if err := s.validator.Validate(inst.Properties); err != nil {
			ilog.Error().Err(err).Msg("instance failed schema validation, not submitted")
			res.Error = fmt.Sprintf("validation: %v", err)
			return res
		}
	}

	id, err := s.store.CreateInstance(ctx, inst.Properties)
	if err != nil {
		ilog.Error().Err(err).Msg("failed to create instance")
		res.Error = err.Error()
		return res
	}
	res.InstanceID = id
	ilog.Info().Str("instance_id", id).Msg("instance created")

	if s.publisher != nil {
		payload := events.InstanceCreatedPayload{
			RunID:      runID,
			TemplateID: inst.TemplateID,
			InstanceID: id,
			DoDate:     inst.DoDate.String(),
			Properties: inst.Properties,
			CreatedAt:  time.Now(),
		}
		if err := s.publisher.PublishInstanceCreated(ctx, payload); err != nil {
			ilog.Warn().Err(err).Str("instance_id", id).Msg("failed to publish instance event")
		}
	}
	return res
}
