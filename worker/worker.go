package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/rmq"
	"text2phenotype.com/ner/s3client"
	"text2phenotype.com/ner/tasks"
	"text2phenotype.com/ner/types"
)

type Config struct {
	TaskMaxRetries     int `envconfig:"MDL_COMN_RETRY_TASK_COUNT_MAX" default:"3"`
	TaskTimeoutSeconds int `envconfig:"NER_TASK_TIMEOUT_SECONDS" default:"600"`
}

func (config Config) taskTimeout() time.Duration {
	if config.TaskTimeoutSeconds <= 0 {
		return 600 * time.Second
	}
	return time.Duration(config.TaskTimeoutSeconds) * time.Second
}

// Annotator runs the configured annotation stages over a document in place.
type Annotator interface {
	Annotate(ctx context.Context, doc *types.Document) error
}

type Worker struct {
	config      Config
	redis       redisTransactions
	s3          s3Transactions
	rmq         rmqTransactions
	log         *zerolog.Logger
	ppln        Annotator
	fingerprint string
}

// New connects the worker to RMQ, S3 and Redis. fingerprint identifies the classifier
// cascade and becomes part of every results key.
func New(ppln Annotator, fingerprint string) (*Worker, error) {
	log := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:      config,
		log:         &log,
		ppln:        ppln,
		fingerprint: fingerprint,
	}
	if err := worker.refreshRMQClient(); err != nil {
		log.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	if err := worker.refreshS3Client(); err != nil {
		log.Error().Err(err).Msg("Could not create S3 client")
		return nil, err
	}
	if err := worker.refreshRedisClients(); err != nil {
		log.Error().Err(err).Msg("Could not create Redis client")
		return nil, err
	}
	return &worker, nil
}

// StartWorker handles deliveries until the RMQ connection fails and cannot be
// re-established. Each delivery is processed on its own goroutine.
func (worker *Worker) StartWorker() error {
	defer worker.Close()
	for {
		var reason string
		select {
		case delivery, ok := <-worker.rmq.getDeliveriesCh():
			if ok {
				go worker.processMessage(&delivery)
				continue
			}
			reason = "deliveries channel closed"
			worker.log.Error().Msg("Deliveries channel closed, trying to refresh RMQ client")
		case rmqErr := <-worker.rmq.getRespChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			reason = "response connection error"
			worker.log.Err(rmqErr).Msg("Response connection received error, trying to refresh RMQ client")
		case rmqErr := <-worker.rmq.getReqChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			reason = "request connection error"
			worker.log.Err(rmqErr).Msg("Request connection received error, trying to refresh RMQ client")
		}
		if err := worker.refreshRMQClient(); err != nil {
			return fmt.Errorf("%s and refresh failed with: %w", reason, err)
		}
	}
}

func (worker *Worker) Close() {
	worker.redis.close()
	worker.s3.close()
	worker.rmq.close()
}

type closer interface {
	close()
}

// refresh replaces a client through connect and closes the previous one, if any.
func (worker *Worker) refresh(name string, previous closer, connect func() error) error {
	clientLog := worker.log.With().Str("client", name).Logger()
	clientLog.Info().Msg("Refreshing client")
	if err := connect(); err != nil {
		clientLog.Err(err).Msg("Failed to refresh client")
		return err
	}
	if previous != nil {
		previous.close()
	}
	clientLog.Info().Msg("Refreshed client")
	return nil
}

func (worker *Worker) refreshRedisClients() error {
	var previous closer
	if worker.redis != nil {
		previous = worker.redis
	}
	return worker.refresh("redis", previous, func() error {
		tasksClient, err := tasks.NewClient()
		if err != nil {
			return err
		}
		worker.redis = &redisClientWrapper{&tasksClient}
		return nil
	})
}

func (worker *Worker) refreshRMQClient() error {
	var previous closer
	if worker.rmq != nil {
		previous = worker.rmq
	}
	return worker.refresh("rmq", previous, func() error {
		rmqClient, err := rmq.NewClient()
		if err != nil {
			return err
		}
		worker.rmq = &rmqClientWrapper{rmqClient}
		return nil
	})
}

func (worker *Worker) refreshS3Client() error {
	var previous closer
	if worker.s3 != nil {
		previous = worker.s3
	}
	return worker.refresh("s3", previous, func() error {
		s3Client, err := s3client.New()
		if err != nil {
			return err
		}
		worker.s3 = &s3ClientWrapper{s3Client}
		return nil
	})
}
