// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE utilities for settings schemas.
//
// The package consolidates the 3-step CUE pattern used by CUE-backed settings
// models and by the host configuration loader:
//
//  1. Compile the embedded schema and look up its root definition
//  2. Convert caller data (JSON) to CUE and unify it with the definition
//  3. Validate, collecting every violation as an Issue with a JSON path
//
// # Usage
//
//	//go:embed ntp.cue
//	var schemaBytes []byte
//
//	schema, err := cueutil.CompileSchema(schemaBytes, "#NTPv2", cueutil.WithFilename("ntp.cue"))
//	if err != nil {
//	    return nil, err
//	}
//	unified, err := schema.UnifyJSON(valueJSON)
//	if err != nil {
//	    return nil, err
//	}
//	issues := cueutil.Issues(unified.Validate(cue.Concrete(true), cue.All()))
//
// A cue.Context is not safe for concurrent use, so Schema keeps only the
// schema source and compiles it into a fresh context for every operation.
package cueutil
