package classifiers

import (
	"errors"
	"fmt"
	"sync"

	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
)

var ErrUnknownClassifier = errors.New("unknown classifier type")

// Factory builds one classifier of the cascade. Paths in cfg are already resolved.
type Factory func(cfg types.ClassifierConfig) (ner.Classifier, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		types.ClassifierCRF: func(cfg types.ClassifierConfig) (ner.Classifier, error) {
			return NewCRFClassifier(cfg.Name, cfg.Model, cfg.Consistent)
		},
		types.ClassifierGazetteer: func(cfg types.ClassifierConfig) (ner.Classifier, error) {
			return LoadGazetteer(cfg.Name, cfg.Path, cfg.CaseSensitive)
		},
		types.ClassifierRegex: func(cfg types.ClassifierConfig) (ner.Classifier, error) {
			return LoadRegexClassifier(cfg.Name, cfg.Path)
		},
		types.ClassifierNumber: func(cfg types.ClassifierConfig) (ner.Classifier, error) {
			return NewNumberClassifier(cfg.Name), nil
		},
		types.ClassifierTime: func(cfg types.ClassifierConfig) (ner.Classifier, error) {
			return NewTimeClassifier(cfg.Name), nil
		},
	}
)

// Register adds or replaces the factory of a classifier type.
func Register(classifierType string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[classifierType] = factory
}

func factoryFor(classifierType string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[classifierType]
	return f, ok
}

// Load builds the combiner described by the configuration. The classifiers keep the order
// of the configuration file, which is their priority order.
func Load(cfg types.NERConfig) (*ner.Combiner, error) {
	loadLogger := logger.NewLogger("classifiers.Load")

	if len(cfg.Classifiers) == 0 {
		return nil, fmt.Errorf("%s: configuration has no classifiers", cfg.Name)
	}

	list := make([]ner.Classifier, 0, len(cfg.Classifiers))
	for _, c := range cfg.Classifiers {
		factory, ok := factoryFor(c.Type)
		if !ok {
			return nil, fmt.Errorf("classifier %s: %w %q", c.Name, ErrUnknownClassifier, c.Type)
		}
		c.Model = cfg.Resolve(c.Model)
		c.Path = cfg.Resolve(c.Path)

		classifier, err := factory(c)
		if err != nil {
			return nil, fmt.Errorf("classifier %s: %w", c.Name, err)
		}
		loadLogger.Debug().Str("name", c.Name).Str("type", c.Type).Msg("Classifier loaded")
		list = append(list, classifier)
	}

	combiner := ner.New(list, ner.WithParallel(cfg.Parallel))
	loadLogger.Info().Str("config", cfg.Name).Str("combiner", combiner.String()).Msg("NER combiner ready")
	return combiner, nil
}
