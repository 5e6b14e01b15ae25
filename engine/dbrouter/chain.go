package dbrouter

import (
	"context"
	"fmt"
	"strings"

	monitoringmetrics "github.com/msgboard/msgboard/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/metric"
)

const (
	opRead     = "read"
	opWrite    = "write"
	opRelation = "relation"
	opMigrate  = "migrate"
)

// Chain asks an ordered list of policies and takes the first non-abstaining
// answer for reads and writes. Relations and migrations are allowed only
// when no policy objects. A Chain is immutable once built and safe for
// concurrent use.
type Chain struct {
	policies  []Policy
	defaultDB Target
	metrics   *decisionMetrics
}

var _ Policy = (*Chain)(nil)

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithDefault sets the alias used when every policy abstains.
func WithDefault(alias string) ChainOption {
	return func(c *Chain) {
		c.defaultDB = Target(strings.TrimSpace(alias))
	}
}

// WithMeter records every decision on the given meter.
func WithMeter(meter metric.Meter) ChainOption {
	return func(c *Chain) {
		c.metrics = newDecisionMetrics(meter)
	}
}

// NewChain builds a chain over policies. Nil entries are dropped. The
// default alias is Primary unless overridden.
func NewChain(policies []Policy, opts ...ChainOption) *Chain {
	c := &Chain{defaultDB: Primary}
	for _, p := range policies {
		if p != nil {
			c.policies = append(c.policies, p)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defaultDB == Abstain {
		c.defaultDB = Primary
	}
	return c
}

// Default returns the fallback alias.
func (c *Chain) Default() Target {
	return c.defaultDB
}

// Len returns the number of policies in the chain.
func (c *Chain) Len() int {
	return len(c.policies)
}

// Policies returns a copy of the chained policies in order.
func (c *Chain) Policies() []Policy {
	out := make([]Policy, len(c.policies))
	copy(out, c.policies)
	return out
}

func (c *Chain) DBForRead(model Model, hints Hints) Target {
	target := c.first(func(p Policy) Target { return p.DBForRead(model, hints) })
	c.metrics.record(opRead, target.String())
	return target
}

func (c *Chain) DBForWrite(model Model, hints Hints) Target {
	target := c.first(func(p Policy) Target { return p.DBForWrite(model, hints) })
	c.metrics.record(opWrite, target.String())
	return target
}

func (c *Chain) AllowRelation(a, b Model, hints Hints) bool {
	allowed := c.all(func(p Policy) bool { return p.AllowRelation(a, b, hints) })
	c.metrics.record(opRelation, fmt.Sprintf("%t", allowed))
	return allowed
}

func (c *Chain) AllowMigrate(db string, group string, model string, hints Hints) bool {
	allowed := c.all(func(p Policy) bool { return p.AllowMigrate(db, group, model, hints) })
	c.metrics.record(opMigrate, fmt.Sprintf("%t", allowed))
	return allowed
}

func (c *Chain) first(ask func(Policy) Target) Target {
	for _, p := range c.policies {
		if t := ask(p); !t.IsAbstain() {
			return t
		}
	}
	return c.defaultDB
}

func (c *Chain) all(ask func(Policy) bool) bool {
	for _, p := range c.policies {
		if !ask(p) {
			return false
		}
	}
	return true
}

type decisionMetrics struct {
	decisions metric.Int64Counter
}

func newDecisionMetrics(meter metric.Meter) *decisionMetrics {
	if meter == nil {
		return nil
	}
	counter, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem("dbrouter", "decisions_total"),
		metric.WithDescription("Database routing decisions by operation and outcome"),
	)
	if err != nil {
		return nil
	}
	return &decisionMetrics{decisions: counter}
}

func (m *decisionMetrics) record(operation, outcome string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.Add(context.Background(), 1, metric.WithAttributes(
		attrOperation.String(operation),
		attrOutcome.String(outcome),
	))
}
