package worker

import (
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/ner/rmq"
	"text2phenotype.com/ner/tasks"
)

type rmqTransactions interface {
	publishResult(task *Task, message Message) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, log *zerolog.Logger)
	getDeliveriesCh() <-chan amqp.Delivery
	getReqChanErrorsCh() <-chan *amqp.Error
	getRespChanErrorsCh() <-chan *amqp.Error
	close()
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}

func (wrapper *rmqClientWrapper) getDeliveriesCh() <-chan amqp.Delivery {
	return wrapper.rmqClient.Deliveries
}

func (wrapper *rmqClientWrapper) getReqChanErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.ReqChanErrors
}

func (wrapper *rmqClientWrapper) getRespChanErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.RespChanErrors
}

func resultMessage(task *Task, message Message) amqp.Publishing {
	message.Sender = tasks.NERTaskName
	b, _ := json.Marshal(message)
	contentType := task.delivery.ContentType
	if len(contentType) == 0 {
		contentType = "application/json"
	}
	return amqp.Publishing{ContentType: contentType, Body: b}
}

func (wrapper *rmqClientWrapper) publishResult(task *Task, message Message) error {
	return wrapper.rmqClient.PublishResult(resultMessage(task, message))
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// rejectDelivery requeues a delivery once, a redelivered one is dropped.
func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, log *zerolog.Logger) {
	requeue := !delivery.Redelivered
	if requeue {
		log.Info().Msg("Requeuing delivery as it has not been redelivered yet")
	} else {
		log.Info().Msg("Rejecting delivery as it already has been redelivered")
	}
	if err := delivery.Reject(requeue); err != nil {
		log.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}
