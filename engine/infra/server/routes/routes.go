package routes

import "fmt"

const apiVersion = "v0"

// Version returns the current API version string used in routing (e.g., "v0").
func Version() string {
	return apiVersion
}

// Base returns the versioned API base path (e.g., "/api/v0").
func Base() string {
	return fmt.Sprintf("/api/%s", Version())
}

// Messages returns the messages base path (e.g., "/api/v0/messages").
func Messages() string {
	return Base() + "/messages"
}

// Routing returns the routing description path (e.g., "/api/v0/routing").
func Routing() string {
	return Base() + "/routing"
}

// Archive is the HTML archive page.
func Archive() string {
	return "/archive"
}

// HealthVersioned returns the versioned health path (e.g., "/api/v0/health").
func HealthVersioned() string {
	return Base() + "/health"
}

// Liveness and Readiness are the probe paths.
func Liveness() string  { return "/healthz" }
func Readiness() string { return "/readyz" }
