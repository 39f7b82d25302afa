package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

type ProducerConfig struct {
	Brokers      []string
	RetryMax     int
	RequiredAcks int
	// Timeout bounds each network step of a send. Zero keeps sarama's defaults.
	Timeout time.Duration
}

func NewProducer(cfg ProducerConfig) (sarama.SyncProducer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.RequiredAcks(cfg.RequiredAcks)
	saramaCfg.Producer.Retry.Max = cfg.RetryMax
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Partitioner = sarama.NewHashPartitioner
	if cfg.Timeout > 0 {
		saramaCfg.Producer.Timeout = cfg.Timeout
		saramaCfg.Net.DialTimeout = cfg.Timeout
		saramaCfg.Net.WriteTimeout = cfg.Timeout
		saramaCfg.Net.ReadTimeout = cfg.Timeout
	}

	prod, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return prod, nil
}
