// SPDX-License-Identifier: MPL-2.0

// Command motd-extension serves the motd settings extension.
package main

import (
	"context"

	"github.com/nodesettings/settings-sdk/internal/sample/motd"
	"github.com/nodesettings/settings-sdk/pkg/extension"
)

func main() {
	extension.Execute(context.Background(), motd.Extension())
}
