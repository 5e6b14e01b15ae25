package metrics

import "strings"

// Prefix namespaces every metric the service exports.
const Prefix = "msgboard_"

// MetricName adds the service prefix unless name already carries it.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	return Prefix + name
}

// MetricNameWithSubsystem builds msgboard_<subsystem>_<name>.
func MetricNameWithSubsystem(subsystem, name string) string {
	subsystem = strings.Trim(subsystem, "_")
	if subsystem == "" {
		return MetricName(name)
	}
	if name == "" {
		return Prefix + subsystem
	}
	return Prefix + subsystem + "_" + name
}
