package dbrouter

import "sort"

// PinnedPolicy keeps reads and writes of selected models on the primary and
// abstains for everything else. Listing it ahead of ReplicaPolicy gives those
// models read-your-writes behavior without changing the rest of the chain.
type PinnedPolicy struct {
	models map[Model]struct{}
}

var _ Policy = (*PinnedPolicy)(nil)

// NewPinnedPolicy returns a policy pinning the given models to the primary.
// The set is copied and never modified afterwards.
func NewPinnedPolicy(models ...Model) *PinnedPolicy {
	set := make(map[Model]struct{}, len(models))
	for _, m := range models {
		if m == "" {
			continue
		}
		set[m] = struct{}{}
	}
	return &PinnedPolicy{models: set}
}

// Models returns the pinned models in sorted order.
func (p *PinnedPolicy) Models() []Model {
	out := make([]Model, 0, len(p.models))
	for m := range p.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *PinnedPolicy) pinned(model Model) bool {
	_, ok := p.models[model]
	return ok
}

func (p *PinnedPolicy) DBForRead(model Model, _ Hints) Target {
	if p.pinned(model) {
		return Primary
	}
	return Abstain
}

func (p *PinnedPolicy) DBForWrite(model Model, _ Hints) Target {
	if p.pinned(model) {
		return Primary
	}
	return Abstain
}

func (p *PinnedPolicy) AllowRelation(Model, Model, Hints) bool {
	return true
}

func (p *PinnedPolicy) AllowMigrate(string, string, string, Hints) bool {
	return true
}
