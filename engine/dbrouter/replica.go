package dbrouter

// ReplicaPolicy sends every read to the standby pool and every write to the
// primary. It assumes a fully replicated cluster, so relations between
// records loaded from different nodes are allowed. Schema changes are only
// applied on the primary.
type ReplicaPolicy struct{}

var _ Policy = ReplicaPolicy{}

func (ReplicaPolicy) DBForRead(Model, Hints) Target {
	return Standby
}

func (ReplicaPolicy) DBForWrite(Model, Hints) Target {
	return Primary
}

func (ReplicaPolicy) AllowRelation(Model, Model, Hints) bool {
	return true
}

func (ReplicaPolicy) AllowMigrate(db string, _ string, _ string, _ Hints) bool {
	return db == string(Primary)
}
