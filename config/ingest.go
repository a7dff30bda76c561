package config

import (
	"errors"
	"flag"
	"fmt"
	"slices"
	"time"
)

const (
	BACKEND_HF     = "hf"
	BACKEND_JSONL  = "jsonl"
	BACKEND_KAFKA  = "kafka"
	BACKEND_REDDIT = "reddit"

	DEFAULT_OUT_DIR   = "data/processed"
	DEFAULT_MAX_COUNT = 2000
)

var backends = []string{BACKEND_HF, BACKEND_JSONL, BACKEND_KAFKA, BACKEND_REDDIT}

// IngestConfig is everything one ingestion run needs. Flags override the
// environment, which overrides the built-in defaults.
type IngestConfig struct {
	Profile        string
	Dataset        string
	CommentsConfig string
	PostsConfig    string
	Split          string
	OutDir         string
	MaxPosts       int
	MaxComments    int
	ToDatetime     bool

	Backend  string
	InputDir string
	PageSize int

	HFEndpoint string
	HFToken    string

	RedditClientID     string
	RedditClientSecret string

	KafkaBroker      string
	KafkaGroupID     string
	KafkaTopicPrefix string
	KafkaIdleTimeout time.Duration

	FillSentiment bool

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool

	DynamoTable string
	AWSRegion   string
	AWSEndpoint string

	PushgatewayURL string
	PushJob        string

	LabelModelPath string
	LabelModelName string
	LabelModelDir  string
	LabelAILabel   string
	LabelThreshold float64
	LabelMinChars  int
}

// RegisterFlags binds the config to fs with environment-backed defaults.
func RegisterFlags(fs *flag.FlagSet) *IngestConfig {
	c := &IngestConfig{}

	fs.StringVar(&c.Profile, "profile", getEnv("INGEST_PROFILE", "the-reddit-dataset"), "built-in source profile")
	fs.StringVar(&c.Dataset, "dataset", getEnv("INGEST_DATASET", ""), "dataset id (overrides the profile's)")
	fs.StringVar(&c.CommentsConfig, "comments-config", getEnv("INGEST_COMMENTS_CONFIG", ""), "config name of the comments partition")
	fs.StringVar(&c.PostsConfig, "posts-config", getEnv("INGEST_POSTS_CONFIG", ""), "config name of the posts partition")
	fs.StringVar(&c.Split, "split", getEnv("INGEST_SPLIT", ""), "split of every partition")
	fs.StringVar(&c.OutDir, "out-dir", getEnv("INGEST_OUT_DIR", DEFAULT_OUT_DIR), "output directory")
	fs.IntVar(&c.MaxPosts, "max-posts", getEnvInt("INGEST_MAX_POSTS", DEFAULT_MAX_COUNT), "max accepted posts")
	fs.IntVar(&c.MaxComments, "max-comments", getEnvInt("INGEST_MAX_COMMENTS", DEFAULT_MAX_COUNT), "max accepted comments")
	fs.BoolVar(&c.ToDatetime, "to-datetime", getEnvBool("INGEST_TO_DATETIME", false), "convert created_utc to a UTC timestamp")

	fs.StringVar(&c.Backend, "backend", getEnv("INGEST_BACKEND", BACKEND_HF), "record source: hf, jsonl, kafka or reddit")
	fs.StringVar(&c.InputDir, "input-dir", getEnv("INGEST_INPUT_DIR", ""), "directory of <config>.jsonl files (jsonl backend)")
	fs.IntVar(&c.PageSize, "page-size", getEnvInt("HF_PAGE_SIZE", 100), "rows per datasets-server request")

	fs.StringVar(&c.HFEndpoint, "hf-endpoint", getEnv("HF_DATASETS_ENDPOINT", ""), "datasets-server base URL")
	fs.StringVar(&c.HFToken, "hf-token", getEnv("HF_TOKEN", ""), "Hugging Face access token")

	fs.StringVar(&c.RedditClientID, "reddit-client-id", getEnv("REDDIT_CLIENT_ID", ""), "Reddit app client id (reddit backend)")
	fs.StringVar(&c.RedditClientSecret, "reddit-client-secret", getEnv("REDDIT_CLIENT_SECRET", ""), "Reddit app client secret (reddit backend)")

	fs.StringVar(&c.KafkaBroker, "kafka-broker", getEnv("KAFKA_BROKER", "localhost:9092"), "Kafka bootstrap servers")
	fs.StringVar(&c.KafkaGroupID, "kafka-group", getEnv("KAFKA_GROUP_ID", ""), "Kafka consumer group")
	fs.StringVar(&c.KafkaTopicPrefix, "kafka-topic-prefix", getEnv("KAFKA_TOPIC_PREFIX", ""), "prefix of per-partition topics")
	fs.DurationVar(&c.KafkaIdleTimeout, "kafka-idle-timeout", getEnvDuration("KAFKA_IDLE_TIMEOUT", 0), "idle time treated as end of stream")

	fs.BoolVar(&c.FillSentiment, "fill-sentiment", getEnvBool("INGEST_FILL_SENTIMENT", false), "score comments lacking sentiment with VADER")

	fs.StringVar(&c.ValkeyAddress, "valkey-address", getEnv("VALKEY_INIT_ADDRESS", ""), "export registry address; empty disables it")
	fs.StringVar(&c.ValkeyPassword, "valkey-password", getEnv("VALKEY_PASSWORD", ""), "export registry password")
	fs.BoolVar(&c.ValkeyTLS, "valkey-tls", getEnvBool("VALKEY_TLS", false), "use TLS for the export registry")

	fs.StringVar(&c.DynamoTable, "dynamodb-table", getEnv("DYNAMODB_TABLE", ""), "DynamoDB table for the unified rows; empty disables export")
	fs.StringVar(&c.AWSRegion, "aws-region", getEnv("AWS_REGION", ""), "AWS region")
	fs.StringVar(&c.AWSEndpoint, "aws-endpoint", getEnv("AWS_ENDPOINT", ""), "AWS endpoint override, e.g. local DynamoDB")

	fs.StringVar(&c.PushgatewayURL, "pushgateway-url", getEnv("PUSHGATEWAY_URL", ""), "Pushgateway URL; empty disables metrics push")
	fs.StringVar(&c.PushJob, "push-job", getEnv("PUSHGATEWAY_JOB", ""), "Pushgateway job name")

	fs.StringVar(&c.LabelModelPath, "label-model", getEnv("LABEL_MODEL_PATH", ""), "ONNX detector model; empty disables labeling")
	fs.StringVar(&c.LabelModelName, "label-model-name", getEnv("LABEL_MODEL_NAME", ""), "model to download when -label-model is missing")
	fs.StringVar(&c.LabelModelDir, "label-model-dir", getEnv("LABEL_MODEL_DIR", "./models"), "download directory for the detector model")
	fs.StringVar(&c.LabelAILabel, "label-ai-label", getEnv("LABEL_AI_LABEL", ""), "classifier label meaning machine generated")
	fs.Float64Var(&c.LabelThreshold, "label-threshold", getEnvFloat("LABEL_THRESHOLD", 0.5), "ai_prob at or above which a row is labeled ai")
	fs.IntVar(&c.LabelMinChars, "label-min-chars", getEnvInt("LABEL_MIN_CHARS", 200), "shortest text that is scored")

	return c
}

// Validate reports every problem at once.
func (c *IngestConfig) Validate() error {
	var errs []error
	if c.Profile == "" {
		errs = append(errs, errors.New("profile is required"))
	}
	if c.OutDir == "" {
		errs = append(errs, errors.New("out-dir is required"))
	}
	if c.MaxPosts <= 0 {
		errs = append(errs, fmt.Errorf("max-posts must be positive, got %d", c.MaxPosts))
	}
	if c.MaxComments <= 0 {
		errs = append(errs, fmt.Errorf("max-comments must be positive, got %d", c.MaxComments))
	}
	if !slices.Contains(backends, c.Backend) {
		errs = append(errs, fmt.Errorf("backend must be one of %v, got %q", backends, c.Backend))
	}
	if c.Backend == BACKEND_JSONL && c.InputDir == "" {
		errs = append(errs, errors.New("input-dir is required for the jsonl backend"))
	}
	if c.Backend == BACKEND_KAFKA && c.KafkaBroker == "" {
		errs = append(errs, errors.New("kafka-broker is required for the kafka backend"))
	}
	if c.Backend == BACKEND_REDDIT && (c.RedditClientID == "" || c.RedditClientSecret == "") {
		errs = append(errs, errors.New("reddit-client-id and reddit-client-secret are required for the reddit backend"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page-size must be positive, got %d", c.PageSize))
	}
	if c.LabelThreshold < 0 || c.LabelThreshold > 1 {
		errs = append(errs, fmt.Errorf("label-threshold must be within [0, 1], got %v", c.LabelThreshold))
	}
	if len(errs) > 0 {
		return fmt.Errorf("[Config] invalid ingest config: %w", errors.Join(errs...))
	}
	return nil
}
