// Package version holds build identity, overridable with -ldflags "-X".
package version

var (
	AppName   = "dsda-bot"
	Version   = "dev"
	GitCommit = "unknown"
)

// UserAgent is sent with every request to the records site.
func UserAgent() string {
	return AppName + "/" + Version
}
