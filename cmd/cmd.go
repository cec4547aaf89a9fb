/*
Package cmd provides the frontierctl command tree.

This package makes it easy to build custom frontierctl binaries that swap in
their own CrawlFrontier (e.g. one already opened against a non-default data
directory):

	func main() {
		cmd.Execute()
	}

To point the commands at an already-open frontier instead of letting them
open Config.DataDir themselves:

	func main() {
		cmd.Frontier(myFrontier)
		cmd.Execute()
	}

cmd.Execute() blocks until the invoked subcommand completes.
*/
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iParadigms/frontier"
	"github.com/iParadigms/frontier/statusserver"
	"github.com/iParadigms/frontier/store"
	"github.com/iParadigms/frontier/urlnorm"
)

//
// P U B L I C
//

// Frontier sets the CrawlFrontier this process's commands operate against,
// overriding Config.DataDir-based auto-open. Tests use this to point
// commands at a throwaway frontier.
func Frontier(f *frontier.CrawlFrontier) {
	commander.Frontier = f
}

// CommanderStreams holds the i/o functions the test harness can spoof,
// avoiding a fight with the test runner's own stdout/stderr capture.
type CommanderStreams struct {
	Printf func(format string, args ...interface{})
	Errorf func(format string, args ...interface{})
	Exit   func(status int)
}

// Streams sets the global CommanderStreams, returning the previous value.
func Streams(cstream CommanderStreams) CommanderStreams {
	old := commander.Streams
	commander.Streams = cstream
	return old
}

// Execute runs the command specified by the command line.
func Execute() {
	commander.Execute()
}

//
// P R I V A T E
//

var commander struct {
	*cobra.Command
	Frontier *frontier.CrawlFrontier
	Streams  CommanderStreams
}

// config is potentially set by the --config flag below.
var config string

func initCommand() {
	if config != "" {
		if err := frontier.ReadConfigFile(config); err != nil {
			panic(err.Error())
		}
	}

	if commander.Streams.Printf == nil {
		commander.Streams.Printf = func(format string, args ...interface{}) {
			fmt.Printf(format, args...)
		}
	}
	if commander.Streams.Errorf == nil {
		commander.Streams.Errorf = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format, args...)
		}
	}
	if commander.Streams.Exit == nil {
		commander.Streams.Exit = func(status int) {
			os.Exit(status)
		}
	}
}

// openedFrontier tracks whether this invocation opened its own frontier (and
// so must close it) versus being handed one via Frontier().
var openedFrontier bool

func acquireFrontier() *frontier.CrawlFrontier {
	if commander.Frontier != nil {
		return commander.Frontier
	}

	f, err := frontier.OpenCrawlFrontier(frontier.Options{
		DataDir: frontier.Config.DataDir,
		URLStore: store.Options{
			MaxShardSizeBytes: frontier.Config.MaxShardSizeBytes,
			RangeCacheSize:    frontier.Config.RangeCacheSize,
		},
	})
	if err != nil {
		commander.Streams.Errorf("failed to open crawl frontier at %v: %v\n", frontier.Config.DataDir, err)
		commander.Streams.Exit(1)
		return nil
	}
	commander.Frontier = f
	openedFrontier = true
	return f
}

func releaseFrontier() {
	if openedFrontier && commander.Frontier != nil {
		_ = commander.Frontier.Close()
		commander.Frontier = nil
		openedFrontier = false
	}
}

var seedCommand = &cobra.Command{
	Use:   "seed <file>",
	Short: "insert newline-delimited seed URLs into the frontier",
	Long: `Seed reads raw URLs, one per line, from the given file (blank lines
and lines starting with '#' are skipped), normalizes each with urlnorm, and
calls CrawlFrontier.InsertSeedUrls with the result.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initCommand()
		defer releaseFrontier()
		printf := commander.Streams.Printf
		errorf := commander.Streams.Errorf
		exit := commander.Streams.Exit

		file, err := os.Open(args[0])
		if err != nil {
			errorf("failed to open seed file %v: %v\n", args[0], err)
			exit(1)
			return
		}
		defer file.Close()

		var urls []string
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			normalized, err := urlnorm.Normalize(line)
			if err != nil {
				errorf("skipping unparsable seed url %q: %v\n", line, err)
				continue
			}
			urls = append(urls, normalized)
		}
		if err := scanner.Err(); err != nil {
			errorf("failed reading seed file %v: %v\n", args[0], err)
			exit(1)
			return
		}

		f := acquireFrontier()
		if f == nil {
			return
		}
		if err := f.InsertSeedUrls(urls); err != nil {
			errorf("insert_seed_urls failed: %v\n", err)
			exit(1)
			return
		}
		printf("inserted %d seed urls\n", len(urls))
	},
}

var sampleN int

var sampleCommand = &cobra.Command{
	Use:   "sample <n>",
	Short: "sample up to n Pending domains and print them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initCommand()
		defer releaseFrontier()
		printf := commander.Streams.Printf
		errorf := commander.Streams.Errorf
		exit := commander.Streams.Exit

		n, err := strconv.Atoi(args[0])
		if err != nil {
			errorf("invalid sample count %q: %v\n", args[0], err)
			exit(1)
			return
		}

		f := acquireFrontier()
		if f == nil {
			return
		}
		domains, err := f.SampleDomains(n)
		if err != nil {
			errorf("sample_domains failed: %v\n", err)
			exit(1)
			return
		}
		for _, d := range domains {
			printf("%v\n", d.String())
		}
	},
}

var jobsUrlsPerJob int

var jobsCommand = &cobra.Command{
	Use:   "jobs <domain...>",
	Short: "prepare jobs for the given domains and print them as JSON",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initCommand()
		defer releaseFrontier()
		printf := commander.Streams.Printf
		errorf := commander.Streams.Errorf
		exit := commander.Streams.Exit

		urlsPerJob := jobsUrlsPerJob
		if urlsPerJob <= 0 {
			urlsPerJob = frontier.Config.Frontier.DefaultUrlsPerJob
		}

		domains := make([]frontier.Domain, len(args))
		for i, d := range args {
			domains[i] = frontier.NewDomain(d)
		}

		f := acquireFrontier()
		if f == nil {
			return
		}
		jobs, err := f.PrepareJobs(domains, urlsPerJob)
		if err != nil {
			errorf("prepare_jobs failed: %v\n", err)
			exit(1)
			return
		}

		data, err := json.MarshalIndent(jobs, "", "  ")
		if err != nil {
			errorf("failed to encode jobs: %v\n", err)
			exit(1)
			return
		}
		printf("%s\n", data)
	},
}

var serveAddr string

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "start the read-only status server",
	Run: func(cmd *cobra.Command, args []string) {
		initCommand()
		defer releaseFrontier()
		errorf := commander.Streams.Errorf
		exit := commander.Streams.Exit

		f := acquireFrontier()
		if f == nil {
			return
		}
		srv := statusserver.New(f)
		if err := http.ListenAndServe(serveAddr, srv.Router()); err != nil {
			errorf("status server stopped: %v\n", err)
			exit(1)
		}
	},
}

var cleandbCommand = &cobra.Command{
	Use:   "cleandb",
	Short: "reset every CrawlInProgress domain back to Pending",
	Long: `cleandb assumes no crawler is currently running and resets every
domain a prior, now-dead process left claimed.`,
	Run: func(cmd *cobra.Command, args []string) {
		initCommand()
		defer releaseFrontier()
		printf := commander.Streams.Printf
		errorf := commander.Streams.Errorf
		exit := commander.Streams.Exit

		f := acquireFrontier()
		if f == nil {
			return
		}

		var toReset []frontier.Domain
		err := f.ForEachDomain(func(d frontier.Domain, state frontier.DomainState) error {
			if state.Status == frontier.DomainStatusCrawlInProgress {
				toReset = append(toReset, d)
			}
			return nil
		})
		if err != nil {
			errorf("scanning domains failed: %v\n", err)
			exit(1)
			return
		}

		for _, d := range toReset {
			if err := f.SetDomainStatus(d, frontier.DomainStatusPending); err != nil {
				errorf("failed to reset %v: %v\n", d.String(), err)
				exit(1)
				return
			}
		}
		printf("reset %d domains to Pending\n", len(toReset))
	},
}

func init() {
	frontierCommand := &cobra.Command{
		Use: "frontierctl",
	}
	frontierCommand.PersistentFlags().StringVarP(&config,
		"config", "c", "", "path to a config file to load")

	jobsCommand.Flags().IntVarP(&jobsUrlsPerJob, "urls-per-job", "u", 0,
		"urls to sample per job (defaults to frontier.default_urls_per_job)")
	serveCommand.Flags().StringVarP(&serveAddr, "addr", "a", ":8080",
		"address for the status server to listen on")

	frontierCommand.AddCommand(seedCommand)
	frontierCommand.AddCommand(sampleCommand)
	frontierCommand.AddCommand(jobsCommand)
	frontierCommand.AddCommand(serveCommand)
	frontierCommand.AddCommand(cleandbCommand)

	commander.Command = frontierCommand
}
