// Package version provides application version information.
// The version can be set at build time using ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/deck-binder/internal/version.Version=v1.2.3" ./cmd/binderd
package version

// Version is the application version. It defaults to "dev" and can be
// overridden at build time using ldflags.
var Version = "dev"

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// UserAgent is the User-Agent sent on outbound HTTP requests.
func UserAgent() string {
	return "deck-binder/" + Version
}
