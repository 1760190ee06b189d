package buildinfo

// Set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)
