package version

import "fmt"

// Build variables, set at link time:
//
//	-X 'github.com/msgboard/msgboard/pkg/version.Version=v1.0.0'
//	-X 'github.com/msgboard/msgboard/pkg/version.CommitHash=abc123'
//	-X 'github.com/msgboard/msgboard/pkg/version.BuildDate=2024-01-01T00:00:00Z'
var (
	Version    = "unknown"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Info is the build information of the running binary.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("msgboard %s\ncommit: %s\nbuilt: %s", i.Version, i.CommitHash, i.BuildDate)
}
