// SPDX-License-Identifier: MPL-2.0

// Package settings implements versioned settings models and the engine that
// sets, generates, validates and migrates their values.
//
// A settings extension owns one domain of configuration. Each schema revision
// of that domain is described by a Model bound to a Version. Models are
// registered once in a Catalog, migrations between versions are declared as
// Steps of a MigrationGraph, and the Extension façade combines both into the
// four protocol operations:
//
//	catalog := settings.MustNewCatalog(v1Model, v2Model)
//	steps, err := settings.LinearChain(settings.Link{
//	    From: "v1", To: "v2", Forward: upgrade, Backward: downgrade,
//	})
//	graph, err := settings.NewMigrationGraph(steps...)
//	ext, err := settings.New("motd", catalog, graph)
//
//	value, err := ext.Migrate(settings.MigrateRequest{Value: v, From: "v1", To: "v2"})
//
// Catalogs and graphs are immutable once constructed, so an Extension can be
// shared by concurrent callers without locking. No operation performs I/O.
//
// # Errors
//
// Every failure is one of a small set of typed errors which unwrap to the
// package sentinels: ErrUnknownVersion, ErrValidation, ErrMissingRequiredSetting,
// ErrNoMigrationPath and ErrStepFailed. KindOf maps an error to its stable
// kind string for callers that render structured failures.
package settings
