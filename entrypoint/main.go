package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"text2phenotype.com/ner/api"
	"text2phenotype.com/ner/classifiers"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/metrics"
	"text2phenotype.com/ner/pipeline"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/worker"
)

type Config struct {
	ConfigPath    string `envconfig:"NER_CONFIG_PATH" required:"true"`
	RestAPIActive bool   `envconfig:"NER_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"NER_REST_API_PORT" default:"10000"`
	WorkerActive  bool   `envconfig:"NER_WORKER_ACTIVE" default:"true"`
	// MetricsPort serves /metrics on its own listener when the REST API is off.
	MetricsPort string `envconfig:"NER_METRICS_PORT"`
}

const envFileVariable = "NER_ENV_FILE"

// loadEnvFile fills the environment from NER_ENV_FILE, or ./.env when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	file := os.Getenv(envFileVariable)
	if len(file) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		file = ".env"
	}
	return godotenv.Load(file)
}

const pipelineStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	mainLogger := logger.NewLogger("Main")
	fatalErrLogger := mainLogger.Fatal().Caller()
	annotateDir := flag.String("annotate-dir", "", "annotate every *.json document of the directory and exit")
	outDir := flag.String("out-dir", "", "directory receiving the annotated documents of -annotate-dir")
	workers := flag.Int("workers", 4, "documents annotated concurrently in -annotate-dir mode")
	flag.Parse()

	if err := loadEnvFile(); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read env file")
		os.Exit(1)
	}
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	var ner *nerStage
	for retry := 0; ; retry++ {
		var err error
		ner, err = buildStage(config.ConfigPath)
		if err == nil {
			break
		}
		if retry+1 >= pipelineStartMaxRetries {
			fatalErrLogger.Err(err).Msgf("Could not start pipeline after %d retries, exiting", pipelineStartMaxRetries)
			os.Exit(1)
		}
		mainLogger.Err(err).Msg("Failed to start NER pipeline. Retrying in 5 sec")
		time.Sleep(5 * time.Second)
	}
	mainLogger.Info().
		Str("fingerprint", ner.fingerprint).
		Str("requires", ner.pipeline.Requires().String()).
		Str("provides", ner.pipeline.Provides().String()).
		Msg("Pipeline loaded")

	if len(*annotateDir) > 0 {
		dst := *outDir
		if len(dst) == 0 {
			dst = *annotateDir
		}
		count, err := annotateDirectory(context.Background(), ner.pipeline, *annotateDir, dst, *workers, true)
		if err != nil {
			fatalErrLogger.Err(err).Msg("Batch annotation failed")
			os.Exit(1)
		}
		mainLogger.Info().Msgf("Annotated %d documents from %s to %s", count, *annotateDir, dst)
		return
	}

	if config.RestAPIActive {
		serve := func() {
			mainLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{Pipeline: ner.pipeline}
			http.HandleFunc("/annotate", apiRequest.ProcessData)
			http.Handle("/metrics", metrics.Handler())
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			mainLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, nil)
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}
		if !config.WorkerActive {
			serve()
			return
		}
		go serve()
	}
	if !config.WorkerActive {
		mainLogger.Info().Msg("Neither the REST API nor the worker is active, exiting")
		return
	}

	if !config.RestAPIActive && len(config.MetricsPort) > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			host := fmt.Sprintf(":%s", config.MetricsPort)
			mainLogger.Info().Msgf("Metrics on %s", host)
			err := http.ListenAndServe(host, mux)
			mainLogger.Err(err).Msg("Metrics server stopped")
		}()
	}

	mainLogger.Info().Msg("Start NER Worker")
	for {
		rmqWorker, err := worker.New(ner.pipeline, ner.fingerprint)
		if err != nil {
			fatalErrLogger.Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		err = rmqWorker.StartWorker()
		if err != nil {
			mainLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}

type nerStage struct {
	pipeline    *pipeline.Pipeline
	fingerprint string
}

// buildStage loads the NER configuration (a yaml file, or the first valid one of a
// directory) and schedules the NER stage over the declared input annotations.
func buildStage(configPath string) (*nerStage, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	combiner, err := classifiers.Load(cfg)
	if err != nil {
		return nil, err
	}
	annotator := pipeline.NewNERAnnotator(
		combiner,
		pipeline.WithVerbose(cfg.Verbose),
		pipeline.WithDiagnostics(logger.NewDiagnostics(os.Stderr, "NERCombinerAnnotator")),
	)

	input := pipeline.ParseSet(cfg.InputAnnotations)
	if len(cfg.InputAnnotations) == 0 {
		input = pipeline.TokenizeSsplitPosLemma()
	}
	ppln, err := pipeline.New(input, annotator)
	if err != nil {
		return nil, err
	}
	return &nerStage{
		pipeline:    ppln,
		fingerprint: fmt.Sprintf("%016x", combiner.Fingerprint()),
	}, nil
}

func loadConfig(configPath string) (types.NERConfig, error) {
	info, err := os.Stat(configPath)
	if err != nil {
		return types.NERConfig{}, err
	}
	if !info.IsDir() {
		return types.LoadConfiguration(configPath)
	}
	cfgs, err := types.LoadConfigurations(configPath)
	if err != nil {
		return types.NERConfig{}, err
	}
	if len(cfgs) == 0 {
		return types.NERConfig{}, fmt.Errorf("no valid configuration in %s", configPath)
	}
	return cfgs[0], nil
}
