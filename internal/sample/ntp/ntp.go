// SPDX-License-Identifier: MPL-2.0

// Package ntp is a sample settings extension for time synchronization whose
// versions are described by CUE definitions (see ntp.cue).
package ntp

import (
	_ "embed"
	"fmt"

	"github.com/nodesettings/settings-sdk/pkg/settings"
	"github.com/nodesettings/settings-sdk/pkg/settings/cuemodel"
)

const (
	// Name is the extension name reported by `proto1 versions`.
	Name = "ntp"

	// RegionKey is the optional external setting v3 takes its region from.
	RegionKey settings.DomainKey = "settings.host.region"

	// MaxValueSize bounds the JSON encoding of a value the models accept.
	MaxValueSize = 64 << 10

	schemaFile = "ntp.cue"
)

//go:embed ntp.cue
var schema []byte

func modelOpts(extra ...cuemodel.Option) []cuemodel.Option {
	return append([]cuemodel.Option{
		cuemodel.WithFilename(schemaFile),
		cuemodel.WithMaxValueSize(MaxValueSize),
	}, extra...)
}

// Extension returns the ntp extension. Fields a version does not declare are
// dropped from migrated values.
func Extension() *settings.Extension {
	steps, err := settings.LinearChain(
		settings.Link{From: "v1", To: "v2", Forward: v1ToV2, Backward: v2ToV1},
		settings.Link{From: "v2", To: "v3", Forward: v2ToV3, Backward: v3ToV2},
	)
	if err != nil {
		panic(err)
	}
	steps = append(steps, settings.Step{From: "v1", To: "v3", Apply: v1ToV2, Description: "direct"})

	return settings.MustNew(Name,
		settings.MustNewCatalog(
			cuemodel.MustNew("v1", schema, "#NTPv1", modelOpts()...),
			cuemodel.MustNew("v2", schema, "#NTPv2", modelOpts()...),
			cuemodel.MustNew("v3", schema, "#NTPv3",
				modelOpts(cuemodel.FromOptionalExternal(RegionKey, "region"))...,
			),
		),
		settings.MustNewMigrationGraph(steps...),
		settings.WithFieldPolicy(settings.PruneUnknown),
	)
}

// v1ToV2 renames servers and selects the default options. It also serves the
// direct v1 -> v3 edge, since v3 only adds an optional field.
func v1ToV2(v settings.Value) (settings.Value, error) {
	servers, ok := v["servers"]
	if !ok {
		return nil, fmt.Errorf("servers is required")
	}
	delete(v, "servers")
	v["time-servers"] = servers
	v["options"] = []any{"iburst"}
	return v, nil
}

func v2ToV1(v settings.Value) (settings.Value, error) {
	servers, ok := v["time-servers"]
	if !ok {
		return nil, fmt.Errorf("time-servers is required")
	}
	return settings.Value{"servers": servers}, nil
}

func v2ToV3(v settings.Value) (settings.Value, error) {
	return v, nil
}

func v3ToV2(v settings.Value) (settings.Value, error) {
	delete(v, "region")
	return v, nil
}
