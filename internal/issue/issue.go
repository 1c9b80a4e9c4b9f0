// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"

	"github.com/nodesettings/settings-sdk/pkg/settings"
)

type Id int

const (
	UnknownVersionId Id = iota + 1
	ValidationFailedId
	MissingRequiredSettingId
	NoMigrationPathId
	MigrationStepFailedId
	InvalidInputId
	ConfigLoadFailedId
	InternalErrorId
)

type MarkdownMsg string

type HttpLink string

// Issue is one catalog entry: a stable name (the engine error kind where one
// applies), markdown guidance and reference links.
type Issue struct {
	id    Id
	name  string
	mdMsg MarkdownMsg
	links []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

// Name is the identifier accepted by `explain`.
func (i *Issue) Name() string {
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Title returns the first heading of the guidance without its markup.
func (i *Issue) Title() string {
	for _, line := range strings.Split(string(i.mdMsg), "\n") {
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSuffix(strings.TrimSpace(title), "!")
		}
	}
	return i.name
}

// Render renders the guidance, followed by the reference links, with the
// glamour style stylePath.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.links) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.links {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	unknownVersionIssue = &Issue{
		id:   UnknownVersionId,
		name: string(settings.KindUnknownVersion),
		mdMsg: `
# Unknown settings version!

The extension does not declare the version you asked for.

## Things you can try:
- List the versions this extension understands:
~~~
$ <extension> proto1 versions
~~~

- Check the ` + "`--setting-version`" + `, ` + "`--from-version`" + ` and ` + "`--target-version`" + ` flags for typos
- Versions are compared exactly: ` + "`v1`" + ` and ` + "`V1`" + ` are different versions`,
	}

	validationFailedIssue = &Issue{
		id:   ValidationFailedId,
		name: string(settings.KindValidation),
		mdMsg: `
# The value does not satisfy its schema!

Every violation found is listed above, one per line, with the path of the
offending field.

## Common issues:
- A required field is missing
- A field has the wrong type (for example a string where a list is expected)
- A field the version does not declare was supplied
- A value is outside its allowed range or format

## Things you can try:
- Fix all listed fields and validate again:
~~~
$ <extension> proto1 validate --setting-version v1 --value '{...}'
~~~

- Generate a value to see what the schema expects:
~~~
$ <extension> proto1 generate --setting-version v1
~~~`,
		links: []HttpLink{
			"https://cuelang.org/docs/tour/basics/constraints/",
			"https://www.json.org/json-en.html",
		},
	}

	missingRequiredSettingIssue = &Issue{
		id:   MissingRequiredSettingId,
		name: string(settings.KindMissingRequiredSetting),
		mdMsg: `
# A required setting is missing!

Generation needs a setting owned by another extension, and it was not
supplied.

## Things you can try:
- Pass the setting through ` + "`--required-settings`" + `, keyed by its full dotted name:
~~~
$ <extension> proto1 generate --setting-version v2 \
    --required-settings '{"settings.network.hostname": "node-1"}'
~~~

- A parent mapping also works:
~~~json
{"settings": {"network": {"hostname": "node-1"}}}
~~~`,
	}

	noMigrationPathIssue = &Issue{
		id:   NoMigrationPathId,
		name: string(settings.KindNoMigrationPath),
		mdMsg: `
# No migration path!

Both versions exist, but no chain of declared migration steps leads from the
source version to the target version.

## Things you can try:
- Check the direction: steps are one-way, and a backward step may not be declared
- Use flood-migrate to see every version reachable from your value:
~~~
$ <extension> proto1 flood-migrate --from-version v1 --value '{...}'
~~~`,
	}

	migrationStepFailedIssue = &Issue{
		id:   MigrationStepFailedId,
		name: string(settings.KindStepFailed),
		mdMsg: `
# A migration step failed!

One step of the migration rejected the value. The error above names the step
that failed; no partially migrated value was produced.

## Things you can try:
- Validate the value against its source version first:
~~~
$ <extension> proto1 validate --setting-version v1 --value '{...}'
~~~

- Run with ` + "`--verbose`" + ` to see the full error chain`,
	}

	invalidInputIssue = &Issue{
		id:   InvalidInputId,
		name: "invalid_input",
		mdMsg: `
# Invalid input!

A flag value could not be parsed. Values, partial values and required
settings must be JSON objects.

## Things you can try:
- Quote JSON for your shell:
~~~
$ <extension> proto1 set --setting-version v1 --value '{"motd": "hi"}'
~~~

- Check for trailing commas and unquoted keys`,
		links: []HttpLink{
			"https://www.json.org/json-en.html",
		},
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config_load_failed",
		mdMsg: `
# Failed to load configuration!

The configuration file exists but could not be read or does not match the
configuration schema.

## Things you can try:
- Print the path of the configuration file in use:
~~~
$ <extension> config path
~~~

- Show the effective configuration:
~~~
$ <extension> config show
~~~

- Recreate the default configuration:
~~~
$ <extension> config init --force
~~~`,
		links: []HttpLink{
			"https://cuelang.org/docs/",
		},
	}

	internalErrorIssue = &Issue{
		id:   InternalErrorId,
		name: string(settings.KindInternal),
		mdMsg: `
# Internal error!

The extension failed in a way that does not depend on your input.

## Things you can try:
- Run again with ` + "`--verbose`" + ` and ` + "`--log-level debug`" + `
- Report the output to the maintainers of the extension`,
	}

	issues = map[Id]*Issue{
		unknownVersionIssue.Id():         unknownVersionIssue,
		validationFailedIssue.Id():       validationFailedIssue,
		missingRequiredSettingIssue.Id(): missingRequiredSettingIssue,
		noMigrationPathIssue.Id():        noMigrationPathIssue,
		migrationStepFailedIssue.Id():    migrationStepFailedIssue,
		invalidInputIssue.Id():           invalidInputIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		internalErrorIssue.Id():          internalErrorIssue,
	}
)

// Values returns every known issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// ByName returns the issue with the given name.
func ByName(name string) (*Issue, bool) {
	for _, i := range issues {
		if i.name == name {
			return i, true
		}
	}
	return nil, false
}

// ForKind returns the issue explaining an engine error kind. Kinds without
// an entry of their own are explained as internal errors.
func ForKind(kind settings.Kind) *Issue {
	if i, ok := ByName(string(kind)); ok {
		return i
	}
	return internalErrorIssue
}
