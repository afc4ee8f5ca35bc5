// Package version provides build-time version information for dfeval.
//
// Set it during build with ldflags:
//
//	go build -ldflags "\
//	  -X github.com/elphick/df-eval/version.Version=1.2.3 \
//	  -X github.com/elphick/df-eval/version.Revision=abc1234 \
//	  -X 'github.com/elphick/df-eval/version.BuiltAt=$(date)'" ./cmd/dfeval
//
// Without ldflags the module and VCS stamps of the binary are used.
package version
