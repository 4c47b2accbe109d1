package types

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"text2phenotype.com/ner/logger"
)

const (
	// classifier types
	ClassifierCRF       = "crf"
	ClassifierGazetteer = "gazetteer"
	ClassifierRegex     = "regex"
	ClassifierNumber    = "number"
	ClassifierTime      = "time"
)

// ClassifierConfig describes one classifier of the cascade. Model and Path are resolved
// against the directory of the configuration file when relative.
type ClassifierConfig struct {
	Name          string `yaml:"name" json:"name"`
	Type          string `yaml:"type" json:"type"`
	Model         string `yaml:"model,omitempty" json:"model,omitempty"`
	Path          string `yaml:"path,omitempty" json:"path,omitempty"`
	Consistent    bool   `yaml:"consistent,omitempty" json:"consistent,omitempty"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
}

// Identity is the string used to fingerprint a classifier: results produced with different
// models must not share storage keys.
func (cfg ClassifierConfig) Identity() string {
	return strings.Join([]string{cfg.Type, cfg.Name, cfg.Model, cfg.Path}, "|")
}

type NERConfig struct {
	Name             string             `yaml:"name" json:"name"`
	FilePath         string             `yaml:"-" json:"file_path"`
	Verbose          bool               `yaml:"verbose" json:"verbose"`
	Parallel         bool               `yaml:"parallel" json:"parallel"`
	InputAnnotations []string           `yaml:"input_annotations" json:"input_annotations"`
	Classifiers      []ClassifierConfig `yaml:"classifiers" json:"classifiers"`
}

var knownClassifierTypes = map[string]bool{
	ClassifierCRF:       true,
	ClassifierGazetteer: true,
	ClassifierRegex:     true,
	ClassifierNumber:    true,
	ClassifierTime:      true,
}

func (cfg NERConfig) Validate() error {
	if len(cfg.Classifiers) == 0 {
		return errors.New("configuration has no classifiers")
	}
	names := make(map[string]bool, len(cfg.Classifiers))
	for i, c := range cfg.Classifiers {
		if !knownClassifierTypes[c.Type] {
			return fmt.Errorf("classifier #%d (%s): unknown type %q", i, c.Name, c.Type)
		}
		if len(c.Name) == 0 {
			return fmt.Errorf("classifier #%d has no name", i)
		}
		if names[c.Name] {
			return fmt.Errorf("classifier name %q is used twice", c.Name)
		}
		names[c.Name] = true
		switch c.Type {
		case ClassifierCRF:
			if len(c.Model) == 0 {
				return fmt.Errorf("classifier %s: crf needs a model", c.Name)
			}
		case ClassifierGazetteer, ClassifierRegex:
			if len(c.Path) == 0 {
				return fmt.Errorf("classifier %s: %s needs a rules path", c.Name, c.Type)
			}
		}
	}
	return nil
}

// Resolve returns p relative to the configuration file directory unless p is absolute.
func (cfg NERConfig) Resolve(p string) string {
	if len(p) == 0 || path.IsAbs(p) || len(cfg.FilePath) == 0 {
		return p
	}
	return path.Join(path.Dir(cfg.FilePath), p)
}

func ParseConfiguration(buf []byte) (NERConfig, error) {
	var cfg NERConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func LoadConfiguration(filePath string) (NERConfig, error) {
	buf, err := ioutil.ReadFile(filePath)
	if err != nil {
		return NERConfig{}, err
	}
	cfg, err := ParseConfiguration(buf)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", filePath, err)
	}
	cfg.FilePath = filePath
	if len(cfg.Name) == 0 {
		cfg.Name = strings.TrimSuffix(path.Base(filePath), ".yaml")
	}
	return cfg, nil
}

// LoadConfigurations reads every yaml file of the directory. Invalid files are logged and skipped.
func LoadConfigurations(dirPath string) ([]NERConfig, error) {
	cfgLogger := logger.NewLogger("LoadConfigurations")

	files, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan NERConfig, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.FileInfo) {
			defer wg.Done()
			cfg, err := LoadConfiguration(path.Join(dirPath, file.Name()))
			if err != nil {
				cfgLogger.Err(err).Str("file", file.Name()).Msg("Skipping configuration")
				return
			}
			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]NERConfig, 0, len(files))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Name < configs[j].Name
	})
	return configs, nil
}
