// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the offending input and
// suggestions; the issue catalog holds longer Markdown guidance for each
// engine error kind, rendered with glamour by the explain command and in
// verbose mode.
package issue
