// Package config loads application settings from a YAML config file,
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ytget/playlist-manager/internal/fsutil"
	"github.com/ytget/playlist-manager/internal/model"
	"github.com/ytget/playlist-manager/internal/queue"
	"github.com/ytget/playlist-manager/internal/tool"
)

// Config file location
const (
	ConfigDirName  = ".playlist-manager"
	ConfigFileName = "config"
	ConfigFileType = "yaml"
	DatabaseName   = "playlist-manager.db"
)

// Environment variable prefix
const (
	EnvPrefix = "PLM"
)

// Settings holds the resolved application configuration.
type Settings struct {
	DownloadDir    string
	MaxParallel    int
	Quality        string
	DBPath         string
	TerminateGrace time.Duration
	Presets        []model.Preset
}

// presetOverride mirrors one entry of the optional "presets" list in
// the config file. Zero fields keep the built-in value.
type presetOverride struct {
	Name         string `mapstructure:"name"`
	VideoCodec   string `mapstructure:"video_codec"`
	VideoPreset  string `mapstructure:"video_preset"`
	CRF          string `mapstructure:"crf"`
	AudioCodec   string `mapstructure:"audio_codec"`
	AudioBitrate string `mapstructure:"audio_bitrate"`
	ScaleHeight  int    `mapstructure:"scale_height"`
}

// Load reads settings from the given config file, or from
// $HOME/.playlist-manager/config.yaml when cfgFile is empty. A missing
// config file is not an error; defaults and environment apply.
func Load(cfgFile string) (*Settings, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ConfigDirName))
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileType)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	settings := &Settings{
		DownloadDir:    v.GetString("download_dir"),
		MaxParallel:    v.GetInt("max_parallel"),
		Quality:        v.GetString("quality"),
		DBPath:         v.GetString("db_path"),
		TerminateGrace: time.Duration(v.GetInt("terminate_grace_ms")) * time.Millisecond,
	}

	var overrides []presetOverride
	if err := v.UnmarshalKey("presets", &overrides); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	settings.Presets = mergePresets(model.BuiltinPresets(), overrides)

	if settings.MaxParallel < 1 {
		settings.MaxParallel = queue.DefaultMaxActive
	}
	return settings, nil
}

func setDefaults(v *viper.Viper) {
	downloadDir, err := fsutil.GetHomeDownloadsDir()
	if err != nil {
		downloadDir = "."
	}
	v.SetDefault("download_dir", downloadDir)
	v.SetDefault("max_parallel", queue.DefaultMaxActive)
	v.SetDefault("quality", tool.QualityBest)
	v.SetDefault("db_path", filepath.Join(downloadDir, DatabaseName))
	v.SetDefault("terminate_grace_ms", int(queue.DefaultTerminateGrace/time.Millisecond))
}

// mergePresets applies config overrides onto the built-in presets.
// An override naming an unknown preset defines a new one.
func mergePresets(builtins []model.Preset, overrides []presetOverride) []model.Preset {
	presets := make([]model.Preset, len(builtins))
	copy(presets, builtins)

	index := make(map[string]int, len(presets))
	for i, p := range presets {
		index[p.Name] = i
	}

	for _, o := range overrides {
		if o.Name == "" {
			continue
		}
		i, ok := index[o.Name]
		if !ok {
			presets = append(presets, model.Preset{Name: o.Name})
			i = len(presets) - 1
			index[o.Name] = i
		}
		p := &presets[i]
		if o.VideoCodec != "" {
			p.VideoCodec = o.VideoCodec
		}
		if o.VideoPreset != "" {
			p.VideoPreset = o.VideoPreset
		}
		if o.CRF != "" {
			p.CRF = o.CRF
		}
		if o.AudioCodec != "" {
			p.AudioCodec = o.AudioCodec
		}
		if o.AudioBitrate != "" {
			p.AudioBitrate = o.AudioBitrate
		}
		if o.ScaleHeight != 0 {
			p.ScaleHeight = o.ScaleHeight
		}
	}
	return presets
}
