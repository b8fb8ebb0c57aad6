// Command feishu-gateway serves the Feishu login flows over HTTP.
//
// Each browser is pinned to a browsing context by a signed cookie; its
// identity lives in the ephemeral tier (memory) and the durable tier
// (redis, miniredis, sqlite or memory, per FEISHU_DURABLE_STORE).
//
// Run:
//
//	go run ./cmd/feishu-gateway serve
//
// Then open http://localhost:8080/login, or relay a code obtained inside the
// Feishu client:
//
//	curl -i -b jar.txt -c jar.txt localhost:8080/login -H 'X-Feishu-SDK-Code: <code>'
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
