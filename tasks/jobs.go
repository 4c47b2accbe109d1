package tasks

import (
	"context"

	"text2phenotype.com/ner/redis"
)

const JobsDB redis.DB = 1

type JobTask struct {
	UserCanceled           bool `json:"user_canceled"`
	StopDocumentsOnFailure bool `json:"stop_documents_on_failure"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) Get(ctx context.Context, redisKey string) (*JobTask, error) {
	var task JobTask
	if err := tasks.client.Get(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
