// Command mextfeed polls the MEXT feed registry and writes the news snapshot.
//
// Usage:
//
//	mextfeed run     --feeds config/feeds.yaml --out data/items.json
//	mextfeed worker  --feeds config/feeds.yaml --out data/items.json
//	mextfeed check   --feeds config/feeds.yaml
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mextfeed:", err)
		os.Exit(1)
	}
}
