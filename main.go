// SPDX-License-Identifier: MPL-2.0

// Command dotnetup installs and manages .NET SDKs and runtimes.
package main

import cmd "github.com/dotnet/sdk-sub056/cmd/dotnetup"

func main() {
	cmd.Execute()
}
