// Command frontierctl is the operator CLI for a persistent crawl frontier:
// seed it with starting URLs, sample domains, prepare jobs, serve read-only
// status, or clean up after a crashed crawler.
package main

import (
	"github.com/iParadigms/frontier/cmd"
)

func main() {
	cmd.Execute()
}
