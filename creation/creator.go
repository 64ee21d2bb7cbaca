package creation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/description"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/slogx"
	"github.com/casualjim/roost/settings"
	"github.com/fogfish/opts"
)

type creatorConfig struct {
	cache   *ExistenceCache
	metrics *Metrics
	logger  *slog.Logger
}

type Option = opts.Option[creatorConfig]

var (
	// WithExistenceCache shares a cache between creators of the same namespace.
	WithExistenceCache = opts.ForName[creatorConfig, *ExistenceCache]("cache")
	WithMetrics        = opts.ForName[creatorConfig, *Metrics]("metrics")
	WithLogger         = opts.ForName[creatorConfig, *slog.Logger]("logger")
)

func newConfig(options []Option) creatorConfig {
	cfg := creatorConfig{
		logger: slog.Default().With(slogx.LoggerName("creation")),
	}
	_ = opts.Apply(&cfg, options)
	if cfg.cache == nil {
		cfg.cache = NewExistenceCache()
	}
	return cfg
}

// entityOps is what the reconcile loop needs to know about one kind of entity.
type entityOps[D any] struct {
	kind   meta.EntityKind
	path   string
	exists func(context.Context) (bool, error)
	create func(context.Context, *D) error
	get    func(context.Context) (*D, error)
	update func(context.Context, *D) error
	diff   func(existing, target *D) description.Changes
}

// reconcile brings the entity in line with target. It creates the entity
// when it is missing and updates it when a mutable field differs. A
// concurrent creator winning the race counts as success, a timeout is
// verified by looking again, and transient failures are logged and
// swallowed.
func reconcile[D any](ctx context.Context, r settings.Reader, cfg creatorConfig, ops entityOps[D], target *D) error {
	logger := cfg.logger.With(slogx.Entity(ops.kind, ops.path))
	kind := ops.kind.String()

	if !settings.GetOrDefault[bool](r, settings.KeyCreateTopology) {
		logger.InfoContext(ctx, "topology creation is disabled, skipping")
		cfg.metrics.observe(kind, OutcomeSkipped)
		return nil
	}

	outcome, err := reconcileOnce(ctx, cfg, ops, target, logger)
	if err != nil {
		outcome, err = handleFailure(ctx, cfg, ops, logger, err)
	}
	cfg.metrics.observe(kind, outcome)
	return err
}

func reconcileOnce[D any](ctx context.Context, cfg creatorConfig, ops entityOps[D], target *D, logger *slog.Logger) (string, error) {
	exists, err := cfg.cache.Exists(ctx, ops.path, ops.exists)
	if err != nil {
		return OutcomeFailed, err
	}

	if !exists {
		if err := ops.create(ctx, target); err != nil {
			return OutcomeFailed, err
		}
		cfg.cache.MarkExists(ops.path)
		logger.InfoContext(ctx, "created")
		return OutcomeCreated, nil
	}

	logger.DebugContext(ctx, "already exists, checking if it needs to be updated")
	existing, err := ops.get(ctx)
	if err != nil {
		return OutcomeFailed, err
	}
	changes := ops.diff(existing, target)
	if len(changes.Immutable) > 0 {
		logger.WarnContext(ctx, "fields cannot be updated on an existing entity", slog.Any("fields", changes.Immutable))
	}
	if !changes.NeedsUpdate() {
		return OutcomeUnchanged, nil
	}

	logger.InfoContext(ctx, "updating with new description", slog.Any("fields", changes.Mutable))
	if err := ops.update(ctx, target); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeUpdated, nil
}

func handleFailure[D any](ctx context.Context, cfg creatorConfig, ops entityOps[D], logger *slog.Logger, err error) (string, error) {
	switch {
	case api.IsAlreadyExists(err):
		logger.InfoContext(ctx, "already exists, another node probably beat us to it")
		cfg.cache.MarkExists(ops.path)
		return OutcomeRaced, nil

	case errors.Is(err, context.Canceled):
		return OutcomeFailed, err

	case api.IsTimeout(err):
		logger.InfoContext(ctx, "timeout occurred, validating whether the entity exists", slogx.Error(err))
		cfg.cache.Forget(ops.path)
		exists, checkErr := cfg.cache.Exists(ctx, ops.path, ops.exists)
		if checkErr != nil || !exists {
			logger.ErrorContext(ctx, "entity does not exist after timeout", slogx.Error(err))
			return OutcomeFailed, err
		}
		logger.InfoContext(ctx, "looks like the entity exists anyway")
		return OutcomeRecovered, nil

	case api.IsTransient(err):
		logger.InfoContext(ctx, "transient failure, leaving it to the next pass", slogx.Error(err))
		return OutcomeSwallowed, nil

	default:
		slogx.Fatal(ctx, logger, "non transient failure", slogx.Error(err))
		return OutcomeFailed, err
	}
}
