package dbrouter

// Target names a logical database alias. The zero value means the policy
// abstains and the caller should ask the next policy or use its default.
type Target string

const (
	Primary Target = "primary"
	Standby Target = "standby"
	Abstain Target = ""
)

// String returns the alias, or "abstain" for the zero value.
func (t Target) String() string {
	if t == Abstain {
		return "abstain"
	}
	return string(t)
}

// IsAbstain reports whether the target carries no routing opinion.
func (t Target) IsAbstain() bool {
	return t == Abstain
}

// Model identifies a logical record type. Policies may use it for per-model
// decisions; the replica policy ignores it.
type Model string

// Policy is the capability set every router exposes.
type Policy interface {
	// DBForRead returns the alias that should serve reads of model.
	DBForRead(model Model, hints Hints) Target
	// DBForWrite returns the alias that should serve creates, updates and deletes.
	DBForWrite(model Model, hints Hints) Target
	// AllowRelation reports whether a reference between a and b is permitted.
	// Returning true means no objection.
	AllowRelation(a, b Model, hints Hints) bool
	// AllowMigrate reports whether schema changes for group (and optionally a
	// single model) may be applied on db.
	AllowMigrate(db string, group string, model string, hints Hints) bool
}
