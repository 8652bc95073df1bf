package pubsub

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

// Publisher publishes domain events to a topic. Publishing is best-effort
// from the caller's point of view; delivery failures are logged by the
// implementation.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte)
	Close()
}

type kafkaPublisher struct {
	logger   *logrus.Logger
	producer *kafka.Producer
}

// PublisherFromConfluentKafkaProducer wraps a confluent kafka producer and
// drains its delivery reports in the background.
func PublisherFromConfluentKafkaProducer(logger *logrus.Logger, producer *kafka.Producer) Publisher {
	p := &kafkaPublisher{
		logger:   logger,
		producer: producer,
	}

	go p.watchDeliveryReport()

	return p
}

func (p *kafkaPublisher) watchDeliveryReport() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.WithFields(logrus.Fields{
					"object": "pubsub",
					"topic":  *ev.TopicPartition.Topic,
				}).Error(ev.TopicPartition.Error)
			}
		case kafka.Error:
			p.logger.WithField("object", "pubsub").Error(ev)
		}
	}
}

// Publish implements Publisher.
func (p *kafkaPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) {
	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:     []byte(key),
		Value:   message,
		Headers: kafkaHeaders,
	}, nil)
	if err != nil {
		p.logger.WithContext(ctx).WithFields(logrus.Fields{
			"object": "pubsub",
			"topic":  topic,
		}).Error(err)
	}
}

// Close implements Publisher.
func (p *kafkaPublisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
