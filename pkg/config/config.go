package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full controller configuration loaded at startup.
type Config struct {
	Version string        `yaml:"version" json:"version"`
	RobotID string        `yaml:"robot_id" json:"robot_id"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	ZeroMQ  ZeroMQConfig  `yaml:"zeromq" json:"zeromq"`
	Planner PlannerConfig `yaml:"planner" json:"planner"`
	Topics  TopicsConfig  `yaml:"topics" json:"topics"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" json:"http_port"`
}

// ZeroMQConfig holds the socket addresses for the ZeroMQ endpoints.
type ZeroMQConfig struct {
	GoalBindAddress    string `yaml:"goal_bind_address" json:"goal_bind_address"`
	ScanBindAddress    string `yaml:"scan_bind_address" json:"scan_bind_address"`
	PublishBindAddress string `yaml:"publish_bind_address" json:"publish_bind_address"`
}

// PlannerConfig holds the motion limits and safety parameters. The
// parameter names follow the conventional local-planner parameters
// (max_vel_translation, dist_vir_wall, ...).
type PlannerConfig struct {
	TrackingFrame   string  `yaml:"tracking_frame" json:"tracking_frame"`
	FrontLaserFrame string  `yaml:"front_laser_frame" json:"front_laser_frame"`
	MaxVel          float64 `yaml:"max_vel_translation" json:"max_vel_translation"`
	MaxAcc          float64 `yaml:"max_acc_translation" json:"max_acc_translation"`
	MaxVelTheta     float64 `yaml:"max_vel_rotation" json:"max_vel_rotation"`
	MaxAccTheta     float64 `yaml:"max_acc_rotation" json:"max_acc_rotation"`
	Gain            float64 `yaml:"gain" json:"gain"`
	MinAngle        float64 `yaml:"min_angle" json:"min_angle"`
	DistVirtualWall float64 `yaml:"dist_vir_wall" json:"dist_vir_wall"`
	RadiusRobot     float64 `yaml:"radius_robot" json:"radius_robot"`
}

// TopicsConfig holds the publish topics for outgoing messages.
type TopicsConfig struct {
	CmdVel    string `yaml:"cmd_vel" json:"cmd_vel"`
	Marker    string `yaml:"marker" json:"marker"`
	Telemetry string `yaml:"telemetry" json:"telemetry"`
}

// DefaultPlannerConfig returns the stock planner parameters for an
// indoor differential-drive base.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		TrackingFrame:   "/base_link",
		FrontLaserFrame: "/front_laser",
		MaxVel:          0.5,
		MaxAcc:          0.15,
		MaxVelTheta:     0.3,
		MaxAccTheta:     0.25,
		Gain:            0.9,
		MinAngle:        math.Pi / 14,
		DistVirtualWall: 0.50,
		RadiusRobot:     0.25,
	}
}

// LoadConfig loads the configuration from a YAML file, applies defaults
// for omitted fields and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{Planner: DefaultPlannerConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Topics.CmdVel == "" {
		c.Topics.CmdVel = "nav.cmd_vel"
	}
	if c.Topics.Marker == "" {
		c.Topics.Marker = "nav.carrot"
	}
	if c.Topics.Telemetry == "" {
		c.Topics.Telemetry = "nav.telemetry"
	}
}

// Validate checks required fields and parameter sanity.
func (c *Config) Validate() error {
	if c.ZeroMQ.GoalBindAddress == "" {
		return fmt.Errorf("missing required field in config: zeromq.goal_bind_address")
	}
	if c.ZeroMQ.ScanBindAddress == "" {
		return fmt.Errorf("missing required field in config: zeromq.scan_bind_address")
	}
	if c.ZeroMQ.PublishBindAddress == "" {
		return fmt.Errorf("missing required field in config: zeromq.publish_bind_address")
	}
	if c.Planner.TrackingFrame == "" {
		return fmt.Errorf("missing required field in config: planner.tracking_frame")
	}
	if c.Planner.FrontLaserFrame == "" {
		return fmt.Errorf("missing required field in config: planner.front_laser_frame")
	}
	if c.Planner.MaxVel <= 0 || c.Planner.MaxAcc <= 0 {
		return fmt.Errorf("planner translation limits must be positive (max_vel_translation=%v, max_acc_translation=%v)",
			c.Planner.MaxVel, c.Planner.MaxAcc)
	}
	if c.Planner.MaxVelTheta <= 0 || c.Planner.MaxAccTheta <= 0 {
		return fmt.Errorf("planner rotation limits must be positive (max_vel_rotation=%v, max_acc_rotation=%v)",
			c.Planner.MaxVelTheta, c.Planner.MaxAccTheta)
	}
	if c.Planner.DistVirtualWall <= 0 || c.Planner.RadiusRobot <= 0 {
		return fmt.Errorf("virtual wall parameters must be positive (dist_vir_wall=%v, radius_robot=%v)",
			c.Planner.DistVirtualWall, c.Planner.RadiusRobot)
	}
	return nil
}
