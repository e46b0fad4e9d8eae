package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Monitor MonitorConfig `yaml:"monitor"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MonitorConfig struct {
	// SysfsMount is the sysfs mountpoint used for the coldplug scan and
	// for re-rooting device paths.
	SysfsMount string `yaml:"sysfs_mount"`
	// NetlinkBufferSize is the receive buffer for uevent datagrams.
	NetlinkBufferSize int `yaml:"netlink_buffer_size"`
	// Subsystems limits which subsystems are tracked. Empty means all.
	Subsystems []string `yaml:"subsystems"`
	// Coldplug controls the initial sysfs snapshot scan at startup.
	Coldplug          bool          `yaml:"coldplug"`
	BroadcastThrottle time.Duration `yaml:"broadcast_throttle"`
	SnapshotInterval  time.Duration `yaml:"snapshot_interval"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Monitor: MonitorConfig{
			SysfsMount:        "/sys",
			NetlinkBufferSize: 8192,
			Coldplug:          true,
			BroadcastThrottle: 100 * time.Millisecond,
			SnapshotInterval:  5 * time.Second,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Monitor.NetlinkBufferSize < 512 {
		return fmt.Errorf("netlink buffer size %d too small", c.Monitor.NetlinkBufferSize)
	}
	if c.Monitor.SysfsMount == "" {
		return fmt.Errorf("sysfs mount must not be empty")
	}
	return nil
}

// SubsystemAllowed reports whether events from the given subsystem should
// be tracked. An empty filter list allows everything.
func (c *Config) SubsystemAllowed(subsystem string) bool {
	if len(c.Monitor.Subsystems) == 0 {
		return true
	}
	for _, s := range c.Monitor.Subsystems {
		if s == subsystem {
			return true
		}
	}
	return false
}
