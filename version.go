package infrascope

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/infrascope.Version=...".
var Version = "0.1.0-dev"
