// Package config loads and saves the typed mindmap configuration document
// described in spec.md section 3: paths, thresholds, result counts, server
// address, and model selection.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/danimelchor/mindmap-go/internal/errs"
)

// ModelKind is a closed enum of embedding model identifiers. Each case maps
// to a canonical sentence-transformers repository name, from which
// RemoteURL builds the download URL. Nothing in this module derives a local
// cache directory from the repository name.
type ModelKind string

const (
	ModelAllMiniLML12V2             ModelKind = "all-minilm-l12-v2"
	ModelAllMiniLML6V2              ModelKind = "all-minilm-l6-v2"
	ModelAllDistilrobertaV1         ModelKind = "all-distilroberta-v1"
	ModelBertBaseNliMeanTokens      ModelKind = "bert-base-nli-mean-tokens"
	ModelDistiluseBaseMultilingual  ModelKind = "distiluse-base-multilingual-cased"
	ModelParaphraseAlbertSmallV2    ModelKind = "paraphrase-albert-small-v2"
	ModelSentenceT5Base             ModelKind = "sentence-t5-base"
)

// modelTableEntry is one row of the tabular model-kind mapping described in
// spec.md section 9: a canonical repo name, used by RemoteURL to form the
// remote download URL.
type modelTableEntry struct {
	repoName string
}

// modelTable is the closed, tabular mapping from ModelKind to its
// HuggingFace sentence-transformers repository name. Kept as data, not a
// subtype hierarchy, per spec.md section 9.
var modelTable = map[ModelKind]modelTableEntry{
	ModelAllMiniLML12V2:            {repoName: "all-MiniLM-L12-v2"},
	ModelAllMiniLML6V2:             {repoName: "all-MiniLM-L6-v2"},
	ModelAllDistilrobertaV1:        {repoName: "all-distilroberta-v1"},
	ModelBertBaseNliMeanTokens:     {repoName: "bert-base-nli-mean-tokens"},
	ModelDistiluseBaseMultilingual: {repoName: "distiluse-base-multilingual-cased"},
	ModelParaphraseAlbertSmallV2:   {repoName: "paraphrase-albert-small-v2"},
	ModelSentenceT5Base:            {repoName: "sentence-T5-base"},
}

// AllModelKinds returns the closed set of supported model kinds, in a
// stable order, for use by `mindmap setup`'s model picker.
func AllModelKinds() []ModelKind {
	return []ModelKind{
		ModelAllMiniLML12V2,
		ModelAllMiniLML6V2,
		ModelAllDistilrobertaV1,
		ModelBertBaseNliMeanTokens,
		ModelDistiluseBaseMultilingual,
		ModelParaphraseAlbertSmallV2,
		ModelSentenceT5Base,
	}
}

// RepoName returns the canonical sentence-transformers repository name for
// a model kind, or "" if the kind is unrecognized.
func (k ModelKind) RepoName() string {
	return modelTable[k].repoName
}

// RemoteURL returns the HuggingFace URL the model would be downloaded from.
func (k ModelKind) RemoteURL() string {
	name := k.RepoName()
	if name == "" {
		return ""
	}
	return "https://huggingface.co/sentence-transformers/" + name
}

// Valid reports whether k is one of the closed set of known model kinds.
func (k ModelKind) Valid() bool {
	_, ok := modelTable[k]
	return ok
}

// ServerConfig configures the Server process's listener and its own lock.
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LockPath string `yaml:"lock_path"`
}

// WatcherConfig configures the Watcher process's own lock.
type WatcherConfig struct {
	LockPath string `yaml:"lock_path"`
}

// ModelConfig selects and configures the embedding model.
type ModelConfig struct {
	Kind   ModelKind `yaml:"kind"`
	Remote bool      `yaml:"remote"`
	Dir    string    `yaml:"dir"`
}

// Config is the full persisted mindmap configuration document (spec.md §3/§6).
type Config struct {
	Version    int           `yaml:"version"`
	DataDir    string        `yaml:"data_dir"`
	DBPath     string        `yaml:"db_path"`
	LogPath    string        `yaml:"log_path"`
	// MinScore is an advisory relevance threshold exposed to formatters
	// and clients; the core retrieval path never filters on it.
	MinScore   float64       `yaml:"min_score"`
	NumResults int           `yaml:"num_results"`
	Server     ServerConfig  `yaml:"server"`
	Watcher    WatcherConfig `yaml:"watcher"`
	Model      ModelConfig   `yaml:"model"`
}

// CurrentVersion is the current config schema version.
const CurrentVersion = 1

// HomeDir returns $HOME, or a KindConfig error if it cannot be determined.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errs.Wrap(errs.KindConfig, "home directory should exist", err)
	}
	return home, nil
}

// ConfigDir returns $HOME/.config/mindmap.
func ConfigDir() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mindmap"), nil
}

// Path returns the location of the config document: $HOME/.config/mindmap/config.yaml.
func Path() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns a Config populated with the defaults documented in
// spec.md section 6 / section 8 scenario 5 and grounded on
// original_source/src/config.rs's MindmapConfig::default.
func Default() (*Config, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	return &Config{
		Version:    CurrentVersion,
		DataDir:    filepath.Join(home, "notes"),
		DBPath:     filepath.Join(dir, "mindmap.db"),
		LogPath:    filepath.Join(dir, "mindmap.log"),
		MinScore:   0.25,
		NumResults: 20,
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     5001,
			LockPath: filepath.Join(home, ".mindmap-server.lock"),
		},
		Watcher: WatcherConfig{
			LockPath: filepath.Join(home, ".mindmap-watcher.lock"),
		},
		Model: ModelConfig{
			Kind:   ModelAllMiniLML12V2,
			Remote: true,
			Dir:    filepath.Join(dir, "model"),
		},
	}, nil
}

// Load reads and parses the config document at Path(). Returns a
// KindConfig error if the home directory is missing, the file is absent,
// or the YAML is malformed.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, "config file not found at "+path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.KindConfig, "malformed config YAML", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to Path(), creating parent directories as needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.KindConfig, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errs.Wrap(errs.KindConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindConfig, "failed to write config file", err)
	}
	return nil
}

// Exists reports whether the config document has already been written.
func Exists() bool {
	path, err := Path()
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}
