// SPDX-License-Identifier: MPL-2.0

// Package extension turns a settings.Extension into a command-line program.
//
// Every settings extension binary exposes the same protocol so that the host
// can drive it without knowing its domain:
//
//	<binary> proto1 set           --setting-version V --value JSON [--current-value JSON]
//	<binary> proto1 generate      --setting-version V [--existing-partial JSON] [--required-settings JSON]
//	<binary> proto1 validate      --setting-version V --value JSON [--required-settings JSON]
//	<binary> proto1 migrate       --value JSON --from-version V --target-version V
//	<binary> proto1 flood-migrate --value JSON --from-version V
//	<binary> proto1 versions
//
// Results are written to stdout as JSON (or TOML, see the config package).
// Failures are written to stderr and reported through the exit status:
// 1 for engine failures and 2 for malformed input. `<binary> explain KIND`
// prints the guidance for a failure kind.
//
// A typical main function:
//
//	func main() {
//	    extension.Execute(context.Background(), motd.Extension())
//	}
package extension
