// Package utils holds small helpers shared across packages: build metadata
// set through -ldflags and rune-safe string truncation.
package utils

// Build metadata, overridden at link time with
// -X github.com/emilwagman/Ambient-AI/pkg/utils.Version=v1.2.3 and friends.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
