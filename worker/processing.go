package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/ner/metrics"
	"text2phenotype.com/ner/tasks"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/utils"
)

var errNoTaskKey = errors.New("message has no task key")

type Message struct {
	WorkType string `json:"work_type"`
	TaskKey  string `json:"task_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery       *amqp.Delivery
	annotationTask *tasks.AnnotationTask
	message        *Message
	taskKey        string
	fingerprint    string
	log            *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	ctx := context.Background()
	rejectLogger := worker.log.With().Str("message_id", delivery.MessageId).Logger()

	task, err := worker.createTask(ctx, delivery)
	if err != nil {
		worker.log.Err(err).
			Str("message_id", delivery.MessageId).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		metrics.WorkerTasks.WithLabelValues(metrics.TaskRequeued).Inc()
		return
	}
	outcome, err := worker.processTask(ctx, task)
	if err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		metrics.WorkerTasks.WithLabelValues(metrics.TaskRequeued).Inc()
		return
	}
	if err = worker.rmq.publishResult(task, *task.message); err != nil {
		task.log.Err(err).Msg("Got error while publishing the result message")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		metrics.WorkerTasks.WithLabelValues(metrics.TaskRequeued).Inc()
		return
	}
	metrics.WorkerTasks.WithLabelValues(outcome).Inc()
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.log.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.log.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(ctx context.Context, delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if len(message.TaskKey) == 0 {
		return nil, errNoTaskKey
	}
	annotationTask, err := worker.redis.getAnnotationTask(ctx, message.TaskKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotation task for message: %w", err)
	}
	taskLogger := worker.log.With().Str("tid", message.TaskKey).Logger()
	return &Task{
		delivery:       delivery,
		annotationTask: annotationTask,
		taskKey:        message.TaskKey,
		fingerprint:    worker.fingerprint,
		message:        &message,
		log:            &taskLogger,
	}, nil
}

// processTask returns an error only when the task status could not be read or written,
// the delivery is then requeued. Annotation failures are recorded on the task.
// The returned outcome is one of the metrics task outcomes.
func (worker *Worker) processTask(ctx context.Context, task *Task) (string, error) {
	shouldPerform, err := worker.shouldPerformTask(ctx, task)
	if err != nil {
		task.log.Err(err).Msg("Got error while trying to decide whether to run task")
		return "", err
	}
	if !shouldPerform {
		return metrics.TaskSkipped, nil
	}
	if err = worker.redis.onTaskStarted(ctx, task); err != nil {
		task.log.Err(err).Msg("Failed to update task info")
		return "", fmt.Errorf("failed to update task info: %w", err)
	}
	if err = worker.runPipeline(ctx, task); err != nil {
		event := task.log.Err(err)
		var panicErr *utils.PanicError
		if errors.As(err, &panicErr) {
			event = event.Bytes("stack", panicErr.Stack)
		}
		event.Msg("Got error while running pipeline")
		return metrics.TaskFailed, worker.redis.onTaskFailedWithError(ctx, task, err)
	}
	task.log.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(ctx, task); err != nil {
		task.log.Err(err).Msg("Got error while trying to mark task as complete")
		return "", err
	}
	return metrics.TaskCompleted, nil
}

func (worker *Worker) runPipeline(ctx context.Context, task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	ctx, cancel := context.WithTimeout(ctx, worker.config.taskTimeout())
	defer cancel()

	task.log.Info().Msgf("Processing message from RMQ, attempt # %d", task.annotationTask.TaskStatuses.NER.Attempts)
	data, err := worker.s3.getDocument(ctx, task)
	if err != nil {
		task.log.Err(err).Caller().Msg("Could not fetch document from s3")
		return fmt.Errorf("failed fetch document from s3: %w", err)
	}
	doc, err := types.ParseDocument(data)
	if err != nil {
		return fmt.Errorf("document %s is not valid: %w", task.annotationTask.DocumentFileKey, err)
	}
	if len(doc.Tid) == 0 {
		doc.Tid = task.taskKey
	}

	started := time.Now()
	err = worker.ppln.Annotate(ctx, doc)
	metrics.ObserveAnnotation(metrics.SurfaceWorker, started, err)
	if err != nil {
		return fmt.Errorf("annotation failed: %w", err)
	}
	result, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	task.log.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(ctx, task, result); err != nil {
		task.log.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(ctx context.Context, task *Task) (bool, error) {
	taskInfo := task.annotationTask.TaskStatuses.NER
	taskLogger := task.log

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done (might indicate issue acking message with RMQ), publishing result again")
		return false, nil
	}
	job, err := worker.redis.getJobTask(ctx, task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for annotation task")
		return false, err
	}
	if job.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task")
		return false, worker.redis.onTaskCancelled(ctx, task)
	}
	if job.StopDocumentsOnFailure {
		docTask, err := worker.redis.getDocTask(ctx, task)
		if err != nil {
			return false, err
		}
		if len(docTask.FailedTasks) > 0 {
			failedTask := docTask.FailedTasks[0]
			taskLogger.Info().Str("failed_task", failedTask).
				Msg("Document already failed in another task and won't be processed successfully")
			return false, worker.redis.onTaskCancelled(
				ctx,
				task,
				fmt.Sprintf(
					"Task was marked as \"%s\" because the document has failed in the \"%s\" worker.",
					tasks.TaskStatusCanceled,
					failedTask,
				),
			)
		}
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("NER task has exceeded retries")
		return false, worker.redis.onTaskExceededRetries(ctx, task, worker.config.TaskMaxRetries)
	}
	return true, nil
}
