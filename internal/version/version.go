// Package version holds build metadata for hsplit.
package version

// Overridable at build time:
// go build -ldflags "-X hsplit/internal/version.Version=0.3.0 -X hsplit/internal/version.Commit=abc123"
var (
	// Version is the semantic version of hsplit
	Version = "0.3.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// IndexFormatVersion is written into serialized usage indexes.
const IndexFormatVersion = 1

// Info returns a short version string, with the abbreviated commit when known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version banner printed by `hsplit version`.
func Full() string {
	return "hsplit version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
