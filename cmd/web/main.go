// MCP server directory web server
package main

import (
	"os"

	"github.com/go-while/go-mcpdir/internal/config"
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion
	if err := Execute(); err != nil {
		os.Exit(1)
	}
} // end main
