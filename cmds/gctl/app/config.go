package app

import (
	"os"
	"path/filepath"

	"github.com/drone/envsubst"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/graphstore/pkg/utils"
)

const ConfigFile = ".gctl"

// Config is read from .gctl files in the home directory, the user
// config directory and the working directory. Later files override
// earlier ones, environment variables override all of them.
// Variable references in a file are substituted from the environment.
type Config struct {
	Graph       *string `json:"graph,omitempty"`
	Persistence *string `json:"persistence,omitempty"`
	Strict      *bool   `json:"strict,omitempty"`
}

func GetConfig(fs vfs.FileSystem) *Config {
	var cfg Config

	dir, err := os.UserHomeDir()
	if err == nil {
		MergeConfig(&cfg, ReadConfig(fs, filepath.Join(dir, ConfigFile)))
	}
	dir, err = os.UserConfigDir()
	if err == nil {
		MergeConfig(&cfg, ReadConfig(fs, filepath.Join(dir, ConfigFile)))
	}
	MergeConfig(&cfg, ReadConfig(fs, ConfigFile))

	if v := os.Getenv("GCTL_GRAPH"); v != "" {
		cfg.Graph = utils.Pointer(v)
	}
	if v := os.Getenv("GCTL_PERSISTENCE"); v != "" {
		cfg.Persistence = utils.Pointer(v)
	}
	return &cfg
}

func ReadConfig(fs vfs.FileSystem, path string) *Config {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil
	}
	expanded, err := envsubst.EvalEnv(string(data))
	if err != nil {
		log.Warn("invalid variable reference in config {{path}}", "path", path, "error", err)
		return nil
	}

	var cfg Config
	err = yaml.Unmarshal([]byte(expanded), &cfg)
	if err != nil {
		log.Warn("invalid config {{path}}", "path", path, "error", err)
		return nil
	}
	log.Debug("read config {{path}}", "path", path)
	return &cfg
}

func MergeConfig(cfg *Config, add *Config) {
	if add == nil {
		return
	}
	if add.Graph != nil {
		cfg.Graph = add.Graph
	}
	if add.Persistence != nil {
		cfg.Persistence = add.Persistence
	}
	if add.Strict != nil {
		cfg.Strict = add.Strict
	}
}
