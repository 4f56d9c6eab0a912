package config

import (
	"fmt"

	"github.com/spf13/viper"

	"fleet_attendance/internal/classify"
	"fleet_attendance/internal/ingest"
	"fleet_attendance/internal/pipeline"
)

// AppConfig is everything read from config.yml plus the environment.
type AppConfig struct {
	Pipeline   pipeline.Config
	LogLevel   string
	LogFile    string
	ServerAddr string
}

// Load reads config.yml (path may be empty to use ./config.yml) and builds
// the per-run pipeline configuration. Driver assignment keys are normalized
// with the same folding the ingester applies, so "DR. John smith: 4417" in
// the YAML matches records ingested as "John Smith".
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = "config.yml"
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "./logs/app.log")
	viper.SetDefault("server_addr", "0.0.0.0:8080")
	viper.SetDefault("output_dir", "./runs")
	viper.SetDefault("late_threshold_minutes", classify.DefaultConfig().LateThresholdMinutes)
	viper.SetDefault("early_end_threshold_minutes", classify.DefaultConfig().EarlyEndThresholdMinutes)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	assignments := make(map[string]string)
	for driver, job := range viper.GetStringMapString("assignments") {
		assignments[ingest.NormalizeDriverName(driver)] = job
	}

	cfg := &AppConfig{
		Pipeline: pipeline.Config{
			SourceDirs:   viper.GetStringSlice("source_dirs"),
			RegistryPath: viper.GetString("job_site_registry"),
			OutputDir:    viper.GetString("output_dir"),
			Assignments:  assignments,
			Thresholds: classify.Config{
				LateThresholdMinutes:     viper.GetInt("late_threshold_minutes"),
				EarlyEndThresholdMinutes: viper.GetInt("early_end_threshold_minutes"),
			},
			Workers:    viper.GetInt("workers"),
			RunTimeout: viper.GetDuration("run_timeout"),
		},
		LogLevel:   viper.GetString("log_level"),
		LogFile:    viper.GetString("log_file"),
		ServerAddr: viper.GetString("server_addr"),
	}

	if len(cfg.Pipeline.SourceDirs) == 0 {
		return nil, fmt.Errorf("config %s: source_dirs must list at least one directory", path)
	}
	if cfg.Pipeline.RunTimeout < 0 {
		cfg.Pipeline.RunTimeout = 0
	}
	return cfg, nil
}
