package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ficscrape/ao3fetch/internal/build"
	"github.com/ficscrape/ao3fetch/internal/config"
	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/internal/scrape"
)

var (
	cfgFile     string
	listingURL  string
	baseOrigin  string
	doLogin     bool
	loginFile   string
	outputDir   string
	concurrency int
	maxAttempts int
	userAgent   string
	timeout     time.Duration
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ao3fetch",
	Short:   "Fetch and extract paginated work listings from the Archive.",
	Version: build.FullVersion(),
	Long: `ao3fetch fetches a work listing from archiveofourown.org, follows its
pagination to collect every page, and emits the structured work records
found across the whole listing as JSON.

Fetching is deliberately polite: successes are followed by a cooldown,
redirects are replayed with a delay, and overload responses are retried
with the server-suggested wait.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listingURL == "" {
			fmt.Fprintf(os.Stderr, "Error: --url is required. Provide a listing URL to fetch.\n")
			cmd.Usage()
			os.Exit(1)
		}

		targetURL, err := url.Parse(listingURL)
		if err != nil {
			return fmt.Errorf("error parsing listing URL %s: %w", listingURL, err)
		}

		cfg := InitConfig()

		recorder := metadata.NewRecorder("ao3fetch")
		scraper, serr := scrape.New(cfg, &recorder, &recorder)
		if serr != nil {
			return fmt.Errorf("error building scraper: %w", serr)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if doLogin {
			if lerr := scraper.Login(ctx); lerr != nil {
				return fmt.Errorf("error logging in: %w", lerr)
			}
		}

		records, rerr := scraper.ScrapeListing(ctx, *targetURL)
		if rerr != nil {
			return fmt.Errorf("error scraping listing: %w", rerr)
		}

		encoded, merr := json.MarshalIndent(records, "", "  ")
		if merr != nil {
			return fmt.Errorf("error encoding records: %w", merr)
		}
		fmt.Println(string(encoded))

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&listingURL, "url", "", "listing URL to fetch")
	rootCmd.PersistentFlags().StringVar(&baseOrigin, "base-origin", "", "origin used to resolve relative redirect and pagination targets")
	rootCmd.PersistentFlags().BoolVar(&doLogin, "login", false, "log in before fetching so restricted works are visible")
	rootCmd.PersistentFlags().StringVar(&loginFile, "login-file", "", "credential file (username on line one, password on line two)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for debug artifacts")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "number of concurrent page fetch workers")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "max-attempts", 0, "attempt ceiling per page fetch (0 for unbounded)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// InitConfig reads in config file and flag overrides.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file and flag overrides, returning any
// errors. This makes it easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		fmt.Printf("Initializing config from file: %s\n", cfgFile)
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	// Start with default config and apply overrides using method chaining
	configBuilder := config.WithDefault()

	if baseOrigin != "" {
		origin, err := url.Parse(baseOrigin)
		if err != nil {
			return config.Config{}, fmt.Errorf("error parsing base origin %s: %w", baseOrigin, err)
		}
		configBuilder = configBuilder.WithBaseOrigin(*origin)
	}

	if loginFile != "" {
		configBuilder = configBuilder.WithLoginFile(loginFile)
	}

	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if concurrency > 0 {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}

	if maxAttempts > 0 {
		configBuilder = configBuilder.WithMaxAttempts(maxAttempts)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	listingURL = ""
	baseOrigin = ""
	doLogin = false
	loginFile = ""
	outputDir = ""
	concurrency = 0
	maxAttempts = 0
	userAgent = ""
	timeout = 0
	logLevel = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetBaseOriginForTest(origin string) {
	baseOrigin = origin
}

func SetLoginFileForTest(path string) {
	loginFile = path
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetMaxAttemptsForTest(attempts int) {
	maxAttempts = attempts
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetLogLevelForTest(level string) {
	logLevel = level
}
