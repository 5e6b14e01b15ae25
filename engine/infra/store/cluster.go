package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/msgboard/msgboard/engine/dbrouter"
	"github.com/msgboard/msgboard/engine/message"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Operation names carried in the operation hint.
const (
	OpCreate = "create"
	OpLatest = "latest"
	OpList   = "list"
	OpCount  = "count"
)

// Cluster holds one Database per alias and dispatches every repository call
// to the alias the router picks.
type Cluster struct {
	router           *dbrouter.Chain
	dbs              map[string]Database
	migrationTimeout time.Duration
}

var _ message.Repository = (*Cluster)(nil)

// ClusterOption configures a Cluster.
type ClusterOption func(*Cluster)

// WithMigrationTimeout bounds each alias migration.
func WithMigrationTimeout(timeout time.Duration) ClusterOption {
	return func(c *Cluster) {
		c.migrationTimeout = timeout
	}
}

// NewCluster assembles a cluster from already opened databases.
func NewCluster(router *dbrouter.Chain, dbs []Database, opts ...ClusterOption) (*Cluster, error) {
	if router == nil {
		return nil, fmt.Errorf("router is required")
	}
	c := &Cluster{router: router, dbs: make(map[string]Database, len(dbs))}
	for _, db := range dbs {
		if db == nil {
			continue
		}
		if _, dup := c.dbs[db.Alias()]; dup {
			return nil, fmt.Errorf("duplicate database alias %q", db.Alias())
		}
		c.dbs[db.Alias()] = db
	}
	if len(c.dbs) == 0 {
		return nil, fmt.Errorf("at least one database is required")
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewRouter builds the routing chain named by the database configuration.
func NewRouter(cfg *config.DatabaseConfig, opts ...dbrouter.ChainOption) (*dbrouter.Chain, error) {
	policies, err := dbrouter.Build(cfg.Routers, dbrouter.FactoryOptions{PinnedModels: cfg.PinnedModels})
	if err != nil {
		return nil, err
	}
	opts = append([]dbrouter.ChainOption{dbrouter.WithDefault(cfg.DefaultAlias)}, opts...)
	return dbrouter.NewChain(policies, opts...), nil
}

// OpenCluster opens every configured alias and wires them behind router.
func OpenCluster(ctx context.Context, cfg *config.DatabaseConfig, router *dbrouter.Chain) (*Cluster, error) {
	retryPolicy := RetryPolicy{Retries: cfg.ConnectRetries, Delay: cfg.ConnectRetryDelay}
	dbs := make([]Database, 0, len(cfg.Aliases()))
	for _, alias := range cfg.Aliases() {
		node, _ := cfg.Node(alias)
		db, err := Open(ctx, cfg.Driver, alias, &node, retryPolicy)
		if err != nil {
			closeAll(ctx, dbs)
			return nil, err
		}
		dbs = append(dbs, db)
	}
	c, err := NewCluster(router, dbs, WithMigrationTimeout(cfg.MigrationTimeout))
	if err != nil {
		closeAll(ctx, dbs)
		return nil, err
	}
	return c, nil
}

func closeAll(ctx context.Context, dbs []Database) {
	for _, db := range dbs {
		if err := db.Close(ctx); err != nil {
			logger.FromContext(ctx).Warn("Failed to close database", "alias", db.Alias(), "error", err)
		}
	}
}

// Router returns the routing chain.
func (c *Cluster) Router() *dbrouter.Chain { return c.router }

// Aliases returns the open aliases in sorted order.
func (c *Cluster) Aliases() []string {
	out := make([]string, 0, len(c.dbs))
	for alias := range c.dbs {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Database returns the database opened for alias.
func (c *Cluster) Database(alias string) (Database, error) {
	db, ok := c.dbs[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatabase, alias)
	}
	return db, nil
}

// ForRead resolves the database that should serve a read of model.
func (c *Cluster) ForRead(ctx context.Context, model dbrouter.Model, hints dbrouter.Hints) (Database, error) {
	target := c.router.DBForRead(model, hints)
	logger.FromContext(ctx).Debug("Routed read", "model", model, "alias", target.String())
	return c.Database(string(target))
}

// ForWrite resolves the database that should serve a write of model.
func (c *Cluster) ForWrite(ctx context.Context, model dbrouter.Model, hints dbrouter.Hints) (Database, error) {
	target := c.router.DBForWrite(model, hints)
	logger.FromContext(ctx).Debug("Routed write", "model", model, "alias", target.String())
	return c.Database(string(target))
}

func hintsFor(ctx context.Context, op string) dbrouter.Hints {
	return dbrouter.HintsFromContext(ctx).With(dbrouter.HintOperation, op)
}

func (c *Cluster) Create(ctx context.Context, msg *message.Message) error {
	db, err := c.ForWrite(ctx, message.Model, hintsFor(ctx, OpCreate).With(dbrouter.HintInstance, msg))
	if err != nil {
		return err
	}
	return db.Messages().Create(ctx, msg)
}

func (c *Cluster) Latest(ctx context.Context) (*message.Message, error) {
	db, err := c.ForRead(ctx, message.Model, hintsFor(ctx, OpLatest))
	if err != nil {
		return nil, err
	}
	return db.Messages().Latest(ctx)
}

func (c *Cluster) List(ctx context.Context, limit, offset int) ([]*message.Message, error) {
	db, err := c.ForRead(ctx, message.Model, hintsFor(ctx, OpList))
	if err != nil {
		return nil, err
	}
	return db.Messages().List(ctx, limit, offset)
}

func (c *Cluster) Count(ctx context.Context) (int64, error) {
	db, err := c.ForRead(ctx, message.Model, hintsFor(ctx, OpCount))
	if err != nil {
		return 0, err
	}
	return db.Messages().Count(ctx)
}

// CheckRelation reports whether records of a and b may reference each other.
func (c *Cluster) CheckRelation(a, b dbrouter.Model) bool {
	return c.router.AllowRelation(a, b, dbrouter.Hints{})
}

// MigrationStep is the migrate decision for one alias.
type MigrationStep struct {
	Alias   string `json:"alias"`
	Driver  string `json:"driver"`
	Allowed bool   `json:"allowed"`
}

// MigrationReport lists the aliases migrated and skipped by Migrate.
type MigrationReport struct {
	Applied []string `json:"applied"`
	Skipped []string `json:"skipped"`
}

// Plan asks the router which aliases may receive the message schema.
func (c *Cluster) Plan(ctx context.Context) []MigrationStep {
	hints := hintsFor(ctx, "migrate")
	steps := make([]MigrationStep, 0, len(c.dbs))
	for _, alias := range c.Aliases() {
		steps = append(steps, MigrationStep{
			Alias:   alias,
			Driver:  c.dbs[alias].Driver(),
			Allowed: c.router.AllowMigrate(alias, message.Group, "", hints),
		})
	}
	return steps
}

// Migrate applies migrations on every alias the router allows and skips
// the rest.
func (c *Cluster) Migrate(ctx context.Context) (*MigrationReport, error) {
	log := logger.FromContext(ctx)
	report := &MigrationReport{Applied: []string{}, Skipped: []string{}}
	for _, step := range c.Plan(ctx) {
		if !step.Allowed {
			log.Info("Skipping migrations", "alias", step.Alias)
			report.Skipped = append(report.Skipped, step.Alias)
			continue
		}
		if err := c.migrateAlias(ctx, step.Alias); err != nil {
			return report, err
		}
		log.Info("Migrations applied", "alias", step.Alias, "driver", step.Driver)
		report.Applied = append(report.Applied, step.Alias)
	}
	return report, nil
}

func (c *Cluster) migrateAlias(ctx context.Context, alias string) error {
	migrateCtx := ctx
	if c.migrationTimeout > 0 {
		var cancel context.CancelFunc
		migrateCtx, cancel = context.WithTimeout(ctx, c.migrationTimeout)
		defer cancel()
	}
	if err := c.dbs[alias].Migrate(migrateCtx); err != nil {
		return fmt.Errorf("migrate %q: %w", alias, err)
	}
	return nil
}

// AliasHealth is the health of one alias.
type AliasHealth struct {
	Alias   string `json:"alias"`
	Driver  string `json:"driver"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Health pings every alias concurrently. Results follow Aliases order.
func (c *Cluster) Health(ctx context.Context) []AliasHealth {
	aliases := c.Aliases()
	out := make([]AliasHealth, len(aliases))
	var g errgroup.Group
	for i, alias := range aliases {
		db := c.dbs[alias]
		g.Go(func() error {
			h := AliasHealth{Alias: alias, Driver: db.Driver(), Healthy: true}
			if err := db.HealthCheck(ctx); err != nil {
				h.Healthy = false
				h.Error = err.Error()
			}
			out[i] = h
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// HealthCheck returns the joined errors of every unhealthy alias.
func (c *Cluster) HealthCheck(ctx context.Context) error {
	var errs []error
	for _, alias := range c.Aliases() {
		if err := c.dbs[alias].HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", alias, err))
		}
	}
	return errors.Join(errs...)
}

// Routing describes the chain and its decisions for message records.
type Routing struct {
	Policies []string        `json:"policies"`
	Default  string          `json:"default"`
	Read     string          `json:"read"`
	Write    string          `json:"write"`
	Relation bool            `json:"relation"`
	Migrate  map[string]bool `json:"migrate"`
}

// Describe reports how message records are routed.
func (c *Cluster) Describe(ctx context.Context) Routing {
	names := make([]string, 0, c.router.Len())
	for _, p := range c.router.Policies() {
		names = append(names, dbrouter.PolicyName(p))
	}
	migrate := make(map[string]bool, len(c.dbs))
	for _, step := range c.Plan(ctx) {
		migrate[step.Alias] = step.Allowed
	}
	hints := dbrouter.HintsFromContext(ctx)
	return Routing{
		Policies: names,
		Default:  c.router.Default().String(),
		Read:     c.router.DBForRead(message.Model, hints).String(),
		Write:    c.router.DBForWrite(message.Model, hints).String(),
		Relation: c.router.AllowRelation(message.Model, message.Model, hints),
		Migrate:  migrate,
	}
}

// Close closes every alias.
func (c *Cluster) Close(ctx context.Context) error {
	var errs []error
	for _, alias := range c.Aliases() {
		if err := c.dbs[alias].Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", alias, err))
		}
	}
	return errors.Join(errs...)
}
