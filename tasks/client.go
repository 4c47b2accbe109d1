package tasks

import (
	"text2phenotype.com/ner/redis"
)

type Client struct {
	Documents   DocumentTasks
	Annotations AnnotationTasks
	Jobs        JobTasks
}

// NewClient opens one Redis connection per task database.
func NewClient() (Client, error) {
	docRedisClient, err := redis.NewClient(DocumentsDB)
	if err != nil {
		return Client{}, err
	}
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	annotationsRedisClient, err := redis.NewClient(AnnotationsDB)
	if err != nil {
		return Client{}, err
	}
	return Client{
		Documents:   DocumentTasks{client: docRedisClient},
		Jobs:        JobTasks{client: jobsRedisClient},
		Annotations: AnnotationTasks{client: annotationsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Annotations.client.Close()
	_ = client.Documents.client.Close()
	_ = client.Jobs.client.Close()
}
