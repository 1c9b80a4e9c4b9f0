// SPDX-License-Identifier: MPL-2.0

// Package motd is a sample settings extension for the message of the day.
//
// Version v1 stores a single string. Version v2 splits it into a message, a
// banner toggle and a greeting that generation derives from the host name of
// the node. Computing the greeting also produces the SSH banner setting,
// which is reported as a dependent change.
package motd

import (
	"fmt"

	"github.com/nodesettings/settings-sdk/pkg/settings"
)

const (
	// Name is the extension name reported by `proto1 versions`.
	Name = "motd"

	// HostnameKey is the external setting the v2 greeting is derived from.
	HostnameKey settings.DomainKey = "settings.network.hostname"
	// SSHBannerKey names the dependent setting written alongside the greeting.
	SSHBannerKey settings.DomainKey = "settings.ssh.banner"

	// DefaultMessage is the v2 message used when none was given.
	DefaultMessage = "Welcome!"
)

// Extension returns the motd extension with both versions and the v1 <-> v2
// migrations.
func Extension() *settings.Extension {
	steps, err := settings.LinearChain(settings.Link{
		From:     "v1",
		To:       "v2",
		Forward:  v1ToV2,
		Backward: v2ToV1,
	})
	if err != nil {
		panic(err)
	}

	return settings.MustNew(Name,
		settings.MustNewCatalog(v1Model(), v2Model()),
		settings.MustNewMigrationGraph(steps...),
		settings.WithFieldPolicy(settings.PreserveUnknown),
	)
}

func v1Model() settings.Model {
	return &settings.ModelFuncs{
		V: "v1",
		ValidateFunc: func(v settings.Value, _ settings.Externals) []settings.FieldError {
			var fes []settings.FieldError
			if _, ok := v.StringField("motd"); !ok {
				fes = append(fes, settings.FieldError{Path: "motd", Reason: requiredString(v, "motd")})
			}
			return fes
		},
		FieldNames: []string{"motd"},
	}
}

func v2Model() settings.Model {
	return &settings.ModelFuncs{
		V:            "v2",
		ValidateFunc: validateV2,
		GenerateFunc: generateV2,
		CheckSetFunc: func(current, target settings.Value) []settings.FieldError {
			old, hadGreeting := current.StringField("greeting")
			if !hadGreeting {
				return nil
			}
			if greeting, ok := target.StringField("greeting"); ok && greeting != old {
				return []settings.FieldError{{Path: "greeting", Reason: "is derived from the host name and cannot be changed"}}
			}
			return nil
		},
		FieldNames: []string{"message", "banner", "greeting"},
	}
}

func validateV2(v settings.Value, _ settings.Externals) []settings.FieldError {
	var fes []settings.FieldError
	if _, ok := v.StringField("message"); !ok {
		fes = append(fes, settings.FieldError{Path: "message", Reason: requiredString(v, "message")})
	}
	if v.Has("banner") {
		if _, ok := v.BoolField("banner"); !ok {
			fes = append(fes, settings.FieldError{Path: "banner", Reason: "must be a boolean"})
		}
	}
	if v.Has("greeting") {
		if _, ok := v.StringField("greeting"); !ok {
			fes = append(fes, settings.FieldError{Path: "greeting", Reason: "must be a string"})
		}
	}
	return fes
}

// generateV2 fills message and banner from their defaults. The greeting is
// computed from the host name only when the partial value has none yet, and
// only then is the SSH banner reported.
func generateV2(partial settings.Value, required settings.Externals) (settings.GenerateResult, error) {
	out, err := settings.WithDefaults(partial, settings.Value{
		"message": DefaultMessage,
		"banner":  false,
	})
	if err != nil {
		return settings.GenerateResult{}, err
	}

	result := settings.GenerateResult{Value: out, Complete: true}
	if out.Has("greeting") {
		return result, nil
	}

	raw, err := settings.RequireExternal(required, HostnameKey)
	if err != nil {
		return settings.GenerateResult{}, err
	}
	host, ok := raw.(string)
	if !ok || host == "" {
		return settings.GenerateResult{}, &settings.ValidationError{
			Version:     "v2",
			FieldErrors: []settings.FieldError{{Path: string(HostnameKey), Reason: "must be a non-empty string"}},
		}
	}

	greeting := Greeting(host)
	out["greeting"] = greeting
	result.DependentChanges = map[settings.DomainKey]settings.VersionedValue{
		SSHBannerKey: {Version: "v1", Value: settings.Value{"text": greeting}},
	}
	return result, nil
}

// Greeting returns the greeting generated for host.
func Greeting(host string) string {
	return fmt.Sprintf("Welcome to %s", host)
}

func v1ToV2(v settings.Value) (settings.Value, error) {
	motd, ok := v.StringField("motd")
	if !ok {
		return nil, fmt.Errorf("motd: %s", requiredString(v, "motd"))
	}
	delete(v, "motd")
	v["message"] = motd
	v["banner"] = false
	return v, nil
}

// v2ToV1 keeps only the message; v1 has nowhere to store the rest.
func v2ToV1(v settings.Value) (settings.Value, error) {
	message, ok := v.StringField("message")
	if !ok {
		return nil, fmt.Errorf("message: %s", requiredString(v, "message"))
	}
	delete(v, "message")
	delete(v, "banner")
	delete(v, "greeting")
	v["motd"] = message
	return v, nil
}

func requiredString(v settings.Value, field string) string {
	if !v.Has(field) {
		return "is required"
	}
	return "must be a string"
}
