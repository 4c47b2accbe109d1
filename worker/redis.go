package worker

import (
	"context"
	"fmt"

	"text2phenotype.com/ner/tasks"
)

type redisTransactions interface {
	getAnnotationTask(ctx context.Context, taskKey string) (*tasks.AnnotationTask, error)
	getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error)
	getDocTask(ctx context.Context, task *Task) (*tasks.DocumentTask, error)
	onTaskStarted(ctx context.Context, task *Task) error
	onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error
	onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error
	onTaskFailedWithError(ctx context.Context, task *Task, err error) error
	onTaskComplete(ctx context.Context, task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) update(ctx context.Context, task *Task, updateFunc func(info *tasks.TaskInfo)) error {
	return wrapper.tasksClient.Annotations.Update(ctx, task.taskKey, func(annotationTask *tasks.AnnotationTask) {
		updateFunc(&annotationTask.TaskStatuses.NER)
	})
}

func (wrapper *redisClientWrapper) onTaskStarted(ctx context.Context, task *Task) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo) {
		info.Status = tasks.TaskStatusStarted
		info.Attempts += 1
		info.StartedAt = getFormattedNow()
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo) {
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Documents.MarkFailed(ctx, task.annotationTask.DocID, task.taskKey)
	if err != nil {
		return err
	}
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo) {
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d )", info.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo) {
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = getFormattedNow()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(ctx context.Context, task *Task) error {
	return wrapper.update(ctx, task, func(info *tasks.TaskInfo) {
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = getFormattedNow()
		info.ResultsFileKey = getResultsFileKey(task)
		info.Fingerprint = task.fingerprint
	})
}

func (wrapper *redisClientWrapper) getAnnotationTask(ctx context.Context, taskKey string) (*tasks.AnnotationTask, error) {
	return wrapper.tasksClient.Annotations.Get(ctx, taskKey)
}

func (wrapper *redisClientWrapper) getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.Get(ctx, task.annotationTask.JobID)
}

func (wrapper *redisClientWrapper) getDocTask(ctx context.Context, task *Task) (*tasks.DocumentTask, error) {
	return wrapper.tasksClient.Documents.Get(ctx, task.annotationTask.DocID)
}
