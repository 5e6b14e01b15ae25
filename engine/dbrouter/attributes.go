package dbrouter

import "go.opentelemetry.io/otel/attribute"

var (
	attrOperation = attribute.Key("operation")
	attrOutcome   = attribute.Key("outcome")
)
