// Command recgo runs batch recommendation queries against a stored model
// bundle.
//
// Usage:
//
//	recgo [flags] <command> [args]
//
// Commands:
//
//	recommend  - Top-K recommendations for a query table
//	evaluate   - Precision/recall of a stored result table
//	inspect    - Bundle and interaction statistics
//
// Configuration:
//
//	Settings are layered: built-in defaults, then the YAML file given by
//	--config (or RECGO_CONFIG), then RECGO_* environment variables, e.g.
//	RECGO_STORE_KIND=s3 or RECGO_TOP_K=20.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
