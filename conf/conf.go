// Package conf defines relay's Bootstrap configuration: the CLI's
// port and cache_timeout are authoritative per spec.md §6, and an
// optional YAML file (contrib/config + provider/file) overlays the
// ambient settings the CLI has no room for. Grounded on the teacher's
// conf.Bootstrap (same json/yaml double-tagged struct style), trimmed
// to the fields relay actually has: there is no plugin system,
// upstream pool, or pluggable storage backend left to configure.
package conf

import "time"

// Bootstrap is the root configuration value, decoded from an optional
// YAML file and then overridden with CLI-supplied values via
// dario.cat/mergo.
type Bootstrap struct {
	Hostname  string     `json:"hostname" yaml:"hostname"`
	PidFile   string     `json:"pidfile" yaml:"pidfile"`
	Logger    *Logger    `json:"logger" yaml:"logger"`
	Server    *Server    `json:"server" yaml:"server"`
	Cache     *Cache     `json:"cache" yaml:"cache"`
	Blacklist *Blacklist `json:"blacklist" yaml:"blacklist"`
	Admin     *Admin     `json:"admin" yaml:"admin"`
}

// Logger configures contrib/log's zap+lumberjack backend.
type Logger struct {
	Level      string `json:"level" yaml:"level"`
	Path       string `json:"path" yaml:"path"`
	MaxSize    int    `json:"max_size" yaml:"max_size"`
	MaxAge     int    `json:"max_age" yaml:"max_age"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// Server holds the proxy's own listen port and keep-alive timeout.
// Port and CacheTimeout are the two values spec.md §6 says the CLI
// always wins for; KeepaliveTimeout has no CLI flag and is YAML-only.
type Server struct {
	Port             int           `json:"port" yaml:"port"`
	CacheTimeout     time.Duration `json:"cache_timeout" yaml:"cache_timeout"`
	KeepaliveTimeout time.Duration `json:"keepalive_timeout" yaml:"keepalive_timeout"`
}

// Cache configures internal/filecache.
type Cache struct {
	Root        string        `json:"root" yaml:"root"`
	GCInterval  time.Duration `json:"gc_interval" yaml:"gc_interval"`
	BucketCount int           `json:"bucket_count" yaml:"bucket_count"`
}

// Blacklist configures internal/blacklist's load path.
type Blacklist struct {
	Path string `json:"path" yaml:"path"`
}

// Admin configures internal/adminserver's loopback-only listen
// address.
type Admin struct {
	Addr string `json:"addr" yaml:"addr"`
}
