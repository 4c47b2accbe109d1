package tasks

import (
	"context"

	"text2phenotype.com/ner/redis"
)

const DocumentsDB redis.DB = 0

type DocumentTask struct {
	FailedTasks []string            `json:"failed_tasks"`
	FailedParts map[string][]string `json:"failed_chunks"`
}

type DocumentTasks struct {
	client redis.Client
}

func (tasks DocumentTasks) Get(ctx context.Context, redisKey string) (*DocumentTask, error) {
	var task DocumentTask
	if err := tasks.client.Get(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// MarkFailed records that the NER task failed for good on the annotation task taskKey.
func (tasks DocumentTasks) MarkFailed(ctx context.Context, redisKey string, taskKey string) error {
	var task DocumentTask
	return tasks.client.Update(ctx, redisKey, &task, func() {
		task.FailedTasks = append(task.FailedTasks, NERTaskName)
		if task.FailedParts == nil {
			task.FailedParts = make(map[string][]string)
		}
		task.FailedParts[taskKey] = append(task.FailedParts[taskKey], NERTaskName)
	})
}
