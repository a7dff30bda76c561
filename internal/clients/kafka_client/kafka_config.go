package kafka_client

import "time"

type KafkaConfig struct {
	Broker  string
	GroupID string
	// TopicPrefix is prepended to a partition's config name to get the topic.
	TopicPrefix string
	// IdleTimeout is how long a read may wait before the topic is treated
	// as drained for this run.
	IdleTimeout time.Duration
}

func (c KafkaConfig) Topic(config string) string {
	return c.TopicPrefix + config
}

func (c KafkaConfig) withDefaults() KafkaConfig {
	if c.GroupID == "" {
		c.GroupID = DEFAULT_GROUP_ID
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DEFAULT_IDLE_TIMEOUT
	}
	return c
}
