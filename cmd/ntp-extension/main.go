// SPDX-License-Identifier: MPL-2.0

// Command ntp-extension serves the ntp settings extension.
package main

import (
	"context"

	"github.com/nodesettings/settings-sdk/internal/sample/ntp"
	"github.com/nodesettings/settings-sdk/pkg/extension"
)

func main() {
	extension.Execute(context.Background(), ntp.Extension())
}
