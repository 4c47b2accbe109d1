package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/ner/tasks"
	"text2phenotype.com/ner/types"
)

const testDocumentJSON = `{"sentences":[{"tokens":[{"text":"John","begin":0,"end":4}]}]}`

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	config pipelineMockConfig
	calls  pipelineCall
}

type pipelineMockConfig struct {
	fail  bool
	panic bool
}

type pipelineCall struct {
	pipeline bool
}

func (mock *pipelineMock) Annotate(ctx context.Context, doc *types.Document) error {
	mock.calls.pipeline = true
	if mock.config.panic {
		panic("classifier exploded")
	}
	if mock.config.fail {
		return errors.New("pipeline failed")
	}
	for _, sent := range doc.Sentences {
		for _, token := range sent.Tokens {
			token.SetNER("PERSON")
		}
	}
	return nil
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
	// completed holds the task info as written by onTaskComplete.
	completed *tasks.TaskInfo
}

type redisMockConfig struct {
	getAnnotationTask     withValue
	getJobTask            withValue
	getDocTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getAnnotationTask     bool
	getJobTask            bool
	getDocTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config    rmqMockConfig
	calls     rmqMockCalls
	published []Message
}

type rmqMockConfig struct {
	publishResult       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	publishResult       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
	saved  map[string][]byte
}

type s3MockConfig struct {
	getDocument     withValue
	saveResultsFile failingMethod
}

type s3MockCalls struct {
	getDocument     bool
	saveResultsFile bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func (mock *redisMock) getAnnotationTask(ctx context.Context, redisKey string) (*tasks.AnnotationTask, error) {
	mock.calls.getAnnotationTask = true
	if mock.config.getAnnotationTask.fail {
		return nil, errors.New("failed to get annotation task")
	}
	switch task := mock.config.getAnnotationTask.returnedValue.(type) {
	case tasks.AnnotationTask:
		return &task, nil
	default:
		return &tasks.AnnotationTask{DocID: "doc-1", DocumentFileKey: "documents/doc-1.json"}, nil
	}
}

func (mock *redisMock) getJobTask(ctx context.Context, task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	switch jobTask := mock.config.getJobTask.returnedValue.(type) {
	case tasks.JobTask:
		return &jobTask, nil
	default:
		return &tasks.JobTask{}, nil
	}
}

func (mock *redisMock) getDocTask(ctx context.Context, task *Task) (*tasks.DocumentTask, error) {
	mock.calls.getDocTask = true
	if mock.config.getDocTask.fail {
		return nil, errors.New("failed to get doc task")
	}
	switch docTask := mock.config.getDocTask.returnedValue.(type) {
	case tasks.DocumentTask:
		return &docTask, nil
	default:
		return &tasks.DocumentTask{}, nil
	}
}

func (mock *redisMock) onTaskStarted(ctx context.Context, task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update annotation task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update annotation task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update annotation task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update annotation task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(ctx context.Context, task *Task) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update annotation task on complete")
	}
	mock.completed = &tasks.TaskInfo{
		Status:         tasks.TaskStatusCompletedSuccess,
		ResultsFileKey: getResultsFileKey(task),
		Fingerprint:    task.fingerprint,
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, log *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) publishResult(task *Task, message Message) error {
	mock.calls.publishResult = true
	if mock.config.publishResult.fail {
		return errors.New("failed to publish result")
	}
	mock.published = append(mock.published, message)
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getDocument(ctx context.Context, task *Task) ([]byte, error) {
	mock.calls.getDocument = true
	if mock.config.getDocument.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	switch data := mock.config.getDocument.returnedValue.(type) {
	case []byte:
		return data, nil
	default:
		return []byte(testDocumentJSON), nil
	}
}

func (mock *s3Mock) saveResultsFile(ctx context.Context, task *Task, result []byte) error {
	mock.calls.saveResultsFile = true
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	if mock.saved == nil {
		mock.saved = map[string][]byte{}
	}
	mock.saved[getResultsFileKey(task)] = result
	return nil
}
