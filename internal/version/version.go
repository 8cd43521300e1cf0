package version

// Version is the argo-ta release. It is set at build time:
// -ldflags "-X github.com/rxtech-lab/argo-ta/internal/version.Version=v0.2.0"
// "main" marks a development build.
var Version = "main"

// GetVersion returns the current argo-ta version.
func GetVersion() string {
	return Version
}
