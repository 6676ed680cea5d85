package config

import (
	"log"

	"gopkg.in/yaml.v3"

	"aicoach/pkg/config"
)

// Config is the full application configuration shared by all binaries.
type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Server config.ServerConfig `yaml:"server"`
	Agent  config.AgentConfig  `yaml:"agent"`
	OTel   config.OTelConfig   `yaml:"otel"`

	Scheduler struct {
		ScanIntervalSeconds  int `yaml:"scan_interval_seconds"`
		OutreachBatchSize    int `yaml:"outreach_batch_size"`
		DeferredReleaseBatch int `yaml:"deferred_release_batch"`
	} `yaml:"scheduler"`
}

// Load reads the layered YAML config and applies environment overrides.
func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideAgentFromEnv(&cfg.Agent)

	if cfg.Scheduler.ScanIntervalSeconds <= 0 {
		cfg.Scheduler.ScanIntervalSeconds = 60
	}
	if cfg.Scheduler.OutreachBatchSize <= 0 {
		cfg.Scheduler.OutreachBatchSize = 100
	}
	if cfg.Scheduler.DeferredReleaseBatch <= 0 {
		cfg.Scheduler.DeferredReleaseBatch = 100
	}

	return &cfg
}
