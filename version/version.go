package version

// Version is the current release, overridden at build time with
// -ldflags "-X custodian/version.Version=...".
var Version = "0.1.0"
