package config

// Version is the anzclass binary version.
// Set at build time via: -ldflags "-X github.com/anzclass/anzclass/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
