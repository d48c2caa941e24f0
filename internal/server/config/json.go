package config

import (
	"encoding/json"
	"os"

	"github.com/gridfts/submitd/internal/flagx"
	"github.com/gridfts/submitd/internal/timex"
)

// JsonConfig is the DTO for the optional JSON configuration file. Pointer
// fields distinguish "absent" from zero values, so the overlay only touches
// what the file actually sets.
type JsonConfig struct {
	EndpointAddr    *string         `json:"endpoint_addr"`
	DatabaseDSN     *string         `json:"database_dsn"`
	SecretKey       *string         `json:"secret_key"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`

	MetadataSizeLimit  *int     `json:"metadata_size_limit"`
	StrictOverwriteHop *bool    `json:"strict_overwrite_hop"`
	DedupVOs           []string `json:"dedup_vos"`

	AutoReuseEnabled     *bool  `json:"auto_reuse_enabled"`
	AutoReuseMinFiles    *int   `json:"auto_reuse_min_files"`
	AutoReuseMaxFiles    *int   `json:"auto_reuse_max_files"`
	AutoReuseMaxBigFiles *int   `json:"auto_reuse_max_big_files"`
	AutoReuseSmallSize   *int64 `json:"auto_reuse_small_size"`
	AutoReuseBigSize     *int64 `json:"auto_reuse_big_size"`

	StatsCacheSize *int            `json:"stats_cache_size"`
	StatsCacheTTL  *timex.Duration `json:"stats_cache_ttl"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags, if any, into cfg. Unreadable or invalid files panic:
// a service started with broken explicit configuration should not come up.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	applyJson(cfg, c)
}

func applyJson(cfg *Config, c *JsonConfig) {
	if c.EndpointAddr != nil {
		cfg.EndpointAddr = *c.EndpointAddr
	}
	if c.DatabaseDSN != nil {
		cfg.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		cfg.SecretKey = *c.SecretKey
	}
	if c.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.MetadataSizeLimit != nil {
		cfg.MetadataSizeLimit = *c.MetadataSizeLimit
	}
	if c.StrictOverwriteHop != nil {
		cfg.StrictOverwriteHop = *c.StrictOverwriteHop
	}
	if c.DedupVOs != nil {
		cfg.DedupVOs = c.DedupVOs
	}
	if c.AutoReuseEnabled != nil {
		cfg.AutoReuseEnabled = *c.AutoReuseEnabled
	}
	if c.AutoReuseMinFiles != nil {
		cfg.AutoReuseMinFiles = *c.AutoReuseMinFiles
	}
	if c.AutoReuseMaxFiles != nil {
		cfg.AutoReuseMaxFiles = *c.AutoReuseMaxFiles
	}
	if c.AutoReuseMaxBigFiles != nil {
		cfg.AutoReuseMaxBigFiles = *c.AutoReuseMaxBigFiles
	}
	if c.AutoReuseSmallSize != nil {
		cfg.AutoReuseSmallSize = *c.AutoReuseSmallSize
	}
	if c.AutoReuseBigSize != nil {
		cfg.AutoReuseBigSize = *c.AutoReuseBigSize
	}
	if c.StatsCacheSize != nil {
		cfg.StatsCacheSize = *c.StatsCacheSize
	}
	if c.StatsCacheTTL != nil {
		cfg.StatsCacheTTL = c.StatsCacheTTL.Duration
	}
}
