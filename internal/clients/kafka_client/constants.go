package kafka_client

import "time"

const (
	DEFAULT_GROUP_ID     = "redditcanon-ingest"
	DEFAULT_IDLE_TIMEOUT = 10 * time.Second
	MAX_RETRIES          = 5
	RETRY_DELAY          = 2 * time.Second
	COMMIT_TIMEOUT       = 15 * time.Second
)
