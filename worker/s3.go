package worker

import (
	"context"

	"text2phenotype.com/ner/s3client"
)

type s3Transactions interface {
	saveResultsFile(ctx context.Context, task *Task, result []byte) error
	getDocument(ctx context.Context, task *Task) ([]byte, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) saveResultsFile(ctx context.Context, task *Task, result []byte) error {
	return wrapper.s3Client.Upload(ctx, getResultsFileKey(task), result, s3client.ContentTypeJSON)
}

func (wrapper *s3ClientWrapper) getDocument(ctx context.Context, task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(ctx, task.annotationTask.DocumentFileKey)
}
