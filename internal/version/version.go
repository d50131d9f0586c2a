package version

import "fmt"

// Version is overridden at build time via -ldflags "-X".
var Version = "dev"

// UserAgent returns the User-Agent sent with every upstream request.
func UserAgent() string {
	return fmt.Sprintf("audiusq/%s (https://github.com/sydlexius/audiusq)", Version)
}
