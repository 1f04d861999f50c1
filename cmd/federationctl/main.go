// Command federationctl administers a FederationServer instance directly
// against its database and storage directory.
package main

import (
	"fmt"
	"os"

	"github.com/federationserver/federationserver/cmd/federationctl/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
