package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one corpus: where its annotation database and feature
// files live, the feature-extraction geometry, and the training-time
// truncation settings.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
}

type DatasetConfig struct {
	Name string `yaml:"name"`
	// Kind selects the loader strategy: generic, epic_kitchens or ego4d.
	Kind     string `yaml:"kind"`
	JSONFile string `yaml:"json_file"`
	Split    string `yaml:"split"`

	FeatFolders []string `yaml:"feat_folders"`
	FilePrefix  string   `yaml:"file_prefix"`
	FileExt     string   `yaml:"file_ext"`

	// FPS overrides per-video frame-rates when non-zero.
	FPS float64 `yaml:"fps"`

	NumClasses     int `yaml:"num_classes"`
	InputDim       int `yaml:"input_dim"`
	FeatStride     int `yaml:"feat_stride"`
	NumFrames      int `yaml:"num_frames"`
	DownsampleRate int `yaml:"downsample_rate"`

	MaxSeqLen   int       `yaml:"max_seq_len"`
	TruncThresh float64   `yaml:"trunc_thresh"`
	CropRatio   []float64 `yaml:"crop_ratio"`

	TIoUThresholds []float64 `yaml:"tiou_thresholds"`
}

// Default returns a configuration with the usual ActionFormer-style
// truncation settings filled in.
func Default() *Config {
	return &Config{Dataset: DatasetConfig{
		Kind:           "generic",
		FileExt:        ".npy",
		DownsampleRate: 1,
		MaxSeqLen:      2304,
		TruncThresh:    0.5,
		TIoUThresholds: []float64{0.3, 0.4, 0.5, 0.6, 0.7},
	}}
}

// Load reads a YAML config file, layering it over Default and validating
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the dataset layer cannot default.
func (c *Config) Validate() error {
	d := &c.Dataset
	if d.JSONFile == "" {
		return fmt.Errorf("config: dataset.json_file is required")
	}
	if len(d.FeatFolders) == 0 {
		return fmt.Errorf("config: dataset.feat_folders must list at least one root")
	}
	if d.FeatStride <= 0 || d.NumFrames <= 0 {
		return fmt.Errorf("config: dataset.feat_stride and dataset.num_frames must be positive")
	}
	if d.DownsampleRate <= 0 {
		return fmt.Errorf("config: dataset.downsample_rate must be positive")
	}
	if d.TruncThresh < 0 || d.TruncThresh > 1 {
		return fmt.Errorf("config: dataset.trunc_thresh must be in [0, 1]")
	}
	if len(d.CropRatio) != 0 && len(d.CropRatio) != 2 {
		return fmt.Errorf("config: dataset.crop_ratio must have exactly two entries")
	}
	return nil
}
