package tasks

import (
	"context"

	"text2phenotype.com/ner/redis"
)

const AnnotationsDB redis.DB = 2

// NERTaskName is the name of the task in task_statuses and in failed task lists.
const NERTaskName = "ner"

// AnnotationTask is the part of an annotation task document the NER worker reads and
// writes. Other services own the remaining fields of the stored document.
type AnnotationTask struct {
	DocID           string                 `json:"document_id"`
	JobID           string                 `json:"job_id"`
	DocumentFileKey string                 `json:"document_file_key"`
	TaskStatuses    AnnotationTaskStatuses `json:"task_statuses"`
}

type AnnotationTaskStatuses struct {
	NER TaskInfo `json:"ner"`
}

type TaskInfo struct {
	ResultsFileKey string     `json:"results_file_key"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	Attempts       int        `json:"attempts"`
	Status         TaskStatus `json:"status"`
	Fingerprint    string     `json:"fingerprint,omitempty"`
	ErrorMessages  []string   `json:"error_messages"`
}

type AnnotationTasks struct {
	client redis.Client
}

func (tasks AnnotationTasks) Get(ctx context.Context, redisKey string) (*AnnotationTask, error) {
	var task AnnotationTask
	if err := tasks.client.Get(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks AnnotationTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *AnnotationTask)) error {
	var task AnnotationTask
	return tasks.client.Update(ctx, redisKey, &task, func() { updateFunc(&task) })
}
