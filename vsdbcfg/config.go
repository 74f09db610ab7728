// Copyright 2024 The vsdb-go Authors
// This file is part of vsdb-go.
//
// vsdb-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// vsdb-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with vsdb-go. If not, see <http://www.gnu.org/licenses/>.

// Package vsdbcfg loads the store's on-disk configuration: the base
// directory (spec §6.3) and the shared block-cache sizing rule of spec §5.
package vsdbcfg

import (
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// EnvBaseDir is the environment variable naming the base directory a store
// opens under, per spec §6.3. An explicit Config.BaseDir (or the setter
// API, SetBaseDir) overrides it.
const EnvBaseDir = "VSDB_BASE_DIR"

const (
	minCacheBytes  = 1 << 30  // 1 GiB
	maxCacheBytes  = 12 << 30 // 12 GiB
	cacheGiBPerCPU = 0.2
)

// Config is the on-disk (or programmatic) configuration for one store.
type Config struct {
	BaseDir        string `toml:"base_dir"`
	MaxDBSizeBytes int64  `toml:"max_db_size_bytes"`
	// CacheBytes, if zero, is computed from Parallelism by DefaultCacheBytes.
	CacheBytes  int64 `toml:"cache_bytes"`
	Parallelism int   `toml:"parallelism"`
}

// Load reads a TOML config file at path and resolves BaseDir against
// EnvBaseDir when the file leaves it empty.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "vsdbcfg: read config file")
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "vsdbcfg: parse config file")
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a Config populated entirely from the environment and
// runtime defaults, for callers with no config file.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.BaseDir == "" {
		c.BaseDir = os.Getenv(EnvBaseDir)
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if c.CacheBytes <= 0 {
		c.CacheBytes = DefaultCacheBytes(c.Parallelism)
	} else {
		c.CacheBytes = clampCache(c.CacheBytes)
	}
}

// SetBaseDir overrides the base directory, taking precedence over both the
// config file and EnvBaseDir.
func (c *Config) SetBaseDir(dir string) { c.BaseDir = dir }

// DefaultCacheBytes implements spec §5's shared block-cache sizing rule:
// ~20% of parallelism * 1 GiB, clamped to [1 GiB, 12 GiB].
func DefaultCacheBytes(parallelism int) int64 {
	if parallelism <= 0 {
		parallelism = 1
	}
	bytes := int64(float64(parallelism) * cacheGiBPerCPU * float64(1<<30))
	return clampCache(bytes)
}

func clampCache(bytes int64) int64 {
	if bytes < minCacheBytes {
		return minCacheBytes
	}
	if bytes > maxCacheBytes {
		return maxCacheBytes
	}
	return bytes
}
