package frontier

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config is the package-level configuration instance. It is populated by
// ReadConfigFile (or left at its defaults if no config file is loaded),
// mirroring the teacher's own package-global WalkerConfig.
var Config FrontierConfig

// ConfigName is the path to the config file that init() attempts to load.
var ConfigName = "frontier.yaml"

func init() {
	err := readConfig()
	if err != nil {
		if strings.Contains(err.Error(), "no such file or directory") {
			// No config file present; defaults are already in place.
		} else {
			panic(err.Error())
		}
	}
}

// FrontierConfig defines the available global configuration parameters for
// the frontier process. See SPEC_FULL.md §10 for the yaml schema this
// mirrors.
type FrontierConfig struct {
	DataDir           string `yaml:"data_dir"`
	MaxShardSizeBytes int64  `yaml:"max_shard_size_bytes"`
	RangeCacheSize    int    `yaml:"range_cache_size"`
	LogLevel          string `yaml:"log_level"`

	Frontier struct {
		NumConcurrentDomains int `yaml:"num_concurrent_domains"`
		DefaultUrlsPerJob    int `yaml:"default_urls_per_job"`
		DomainMultimapShards int `yaml:"domain_multimap_shards"`
	} `yaml:"frontier"`
}

// SetDefaultConfig resets Config to its default values, regardless of what
// was set by any previously loaded config file.
func SetDefaultConfig() {
	Config.DataDir = "./data"
	Config.MaxShardSizeBytes = 10 * 1024 * 1024 * 1024 // 10 GiB
	Config.RangeCacheSize = 20000
	Config.LogLevel = "info"

	Config.Frontier.NumConcurrentDomains = 1
	Config.Frontier.DefaultUrlsPerJob = 500
	Config.Frontier.DomainMultimapShards = 64
}

// ReadConfigFile sets a new path to find the frontier yaml config file and
// forces a reload of Config.
func ReadConfigFile(path string) error {
	ConfigName = path
	return readConfig()
}

func assertConfigInvariants() error {
	var errs []string

	if Config.DataDir == "" {
		errs = append(errs, "data_dir must not be empty")
	}
	if Config.MaxShardSizeBytes < 1 {
		errs = append(errs, "max_shard_size_bytes must be greater than 0")
	}
	if Config.RangeCacheSize < 1 {
		errs = append(errs, "range_cache_size must be greater than 0")
	}
	if _, err := zapLevelFromString(Config.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("log_level invalid: %v", err))
	}

	fr := &Config.Frontier
	if fr.NumConcurrentDomains < 1 {
		errs = append(errs, "frontier.num_concurrent_domains must be greater than 0")
	}
	if fr.DefaultUrlsPerJob < 1 {
		errs = append(errs, "frontier.default_urls_per_job must be greater than 0")
	}
	if fr.DomainMultimapShards < 1 {
		errs = append(errs, "frontier.domain_multimap_shards must be greater than 0")
	}

	if len(errs) > 0 {
		em := ""
		for _, err := range errs {
			em += "\t" + err + "\n"
		}
		return fmt.Errorf("config error:\n%v", em)
	}
	return nil
}

func readConfig() error {
	SetDefaultConfig()

	data, err := os.ReadFile(ConfigName)
	if err != nil {
		return fmt.Errorf("failed to read config file (%v): %v", ConfigName, err)
	}
	if err := yaml.Unmarshal(data, &Config); err != nil {
		return fmt.Errorf("failed to unmarshal yaml from config file (%v): %v", ConfigName, err)
	}

	return assertConfigInvariants()
}
