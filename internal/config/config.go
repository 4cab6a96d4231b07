package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/roketz/terrain/internal/core/bvh"
)

// EnvPrefix is the prefix of environment overrides, e.g. TERRAIN_PHYSICS_BVH_DEPTH.
const EnvPrefix = "TERRAIN"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Graphics GraphicsConfig `yaml:"graphics" envconfig:"GRAPHICS"`
	Physics  PhysicsConfig  `yaml:"physics" envconfig:"PHYSICS"`
	Debug    DebugConfig    `yaml:"debug" envconfig:"DEBUG"`
	Log      LogConfig      `yaml:"log" envconfig:"LOG"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
}

type GraphicsConfig struct {
	// Scale multiplies terrain units into overlay pixels.
	Scale uint32 `yaml:"scale" envconfig:"SCALE"`
}

type PhysicsConfig struct {
	// BVHDepth is the destruction resolution of the terrain tree.
	BVHDepth int `yaml:"bvh_depth" envconfig:"BVH_DEPTH"`
	// DeepPointCut carves map pixels down to full resolution in one call.
	DeepPointCut     bool             `yaml:"deep_point_cut" envconfig:"DEEP_POINT_CUT"`
	MaxCrashVelocity float32          `yaml:"max_crash_velocity" envconfig:"MAX_CRASH_VELOCITY"`
	Collisions       CollisionsConfig `yaml:"collisions" envconfig:"COLLISIONS"`
}

type CollisionsConfig struct {
	NearbyNodesRadius       float32 `yaml:"nearby_nodes_radius" envconfig:"NEARBY_NODES_RADIUS"`
	NearbyNodesRadiusBullet float32 `yaml:"nearby_nodes_radius_bullet" envconfig:"NEARBY_NODES_RADIUS_BULLET"`
}

type DebugConfig struct {
	OverlayBVH bool `yaml:"overlay_bvh" envconfig:"OVERLAY_BVH"`
}

type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Graphics: GraphicsConfig{Scale: 8},
		Physics: PhysicsConfig{
			BVHDepth:         7,
			MaxCrashVelocity: 60,
			Collisions: CollisionsConfig{
				NearbyNodesRadius:       20,
				NearbyNodesRadiusBullet: 10,
			},
		},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Addr: "127.0.0.1:7777"},
	}
}

// LoadYAML decodes a YAML document on top of the defaults.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &c, nil
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	cfg := &c

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if cfg, err = LoadYAML(f); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Physics.BVHDepth < 1 || c.Physics.BVHDepth > bvh.MaxDepthLimit {
		return fmt.Errorf("%w: physics.bvh_depth %d outside [1, %d]", ErrInvalidConfig, c.Physics.BVHDepth, bvh.MaxDepthLimit)
	}
	if c.Physics.Collisions.NearbyNodesRadius < 0 || c.Physics.Collisions.NearbyNodesRadiusBullet < 0 {
		return fmt.Errorf("%w: collision radii must not be negative", ErrInvalidConfig)
	}
	if c.Physics.MaxCrashVelocity < 0 {
		return fmt.Errorf("%w: physics.max_crash_velocity must not be negative", ErrInvalidConfig)
	}
	if c.Graphics.Scale == 0 {
		return fmt.Errorf("%w: graphics.scale must be positive", ErrInvalidConfig)
	}
	return nil
}
