package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/redditcanon/config"
	"github.com/spacesedan/redditcanon/internal/clients"
	"github.com/spacesedan/redditcanon/internal/clients/kafka_client"
	"github.com/spacesedan/redditcanon/internal/db"
	"github.com/spacesedan/redditcanon/internal/filter"
	"github.com/spacesedan/redditcanon/internal/labeling"
	"github.com/spacesedan/redditcanon/internal/logging"
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/monitoring"
	"github.com/spacesedan/redditcanon/internal/processing"
	"github.com/spacesedan/redditcanon/internal/sentiment"
	"github.com/spacesedan/redditcanon/internal/sources"
	"github.com/spacesedan/redditcanon/internal/streams"
	"github.com/spacesedan/redditcanon/internal/table"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		slog.Error("[Main] Ingestion failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.IngestConfig, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	started := time.Now()

	profile, err := resolveProfile(cfg)
	if err != nil {
		return err
	}
	slog.Info("[Main] Starting ingestion",
		slog.String("profile", profile.Name),
		slog.String("dataset", profile.Dataset),
		slog.String("backend", cfg.Backend),
		slog.Bool("to_datetime", cfg.ToDatetime))

	opener, err := newOpener(cfg)
	if err != nil {
		return err
	}

	metrics := monitoring.NewMetrics()
	opts := processing.Options{
		MaxPerCategory: map[models.Type]int{
			models.TypeComment: cfg.MaxComments,
			models.TypePost:    cfg.MaxPosts,
		},
		ToUTC:    cfg.ToDatetime,
		Rules:    filter.DefaultRules(),
		Recorder: metrics,
	}
	if cfg.FillSentiment {
		opts.Sentiment = sentiment.NewVader()
	}

	var registry *clients.ValkeyRegistry
	if cfg.ValkeyAddress != "" {
		registry, err = clients.NewValkeyRegistry(ctx, clients.ValkeyConfig{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			TLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			return err
		}
		defer registry.Close()
		opts.Registry = registry
	}

	res, err := processing.NewPipeline(profile, opener, opts).Run(ctx)
	if err != nil {
		return err
	}

	writer := db.NewParquetWriter(cfg.OutDir)
	for _, t := range append(res.Tables, res.All) {
		if _, err := writer.Write(t); err != nil {
			return err
		}
		metrics.TableRows(t.Name, t.Len())
	}

	if cfg.DynamoTable != "" {
		if err := exportDynamo(ctx, cfg, res.All); err != nil {
			return err
		}
	}

	if cfg.LabelModelPath != "" || cfg.LabelModelName != "" {
		if err := label(cfg, writer, profile.Slug(), res.All); err != nil {
			return err
		}
	}

	if registry != nil {
		if err := markExported(ctx, registry, profile.Slug(), res.All); err != nil {
			return err
		}
	}

	printSummary(out, res)

	metrics.RunDuration(time.Since(started))
	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(ctx, cfg.PushgatewayURL, cfg.PushJob, profile.Slug()); err != nil {
			slog.Warn("[Main] Metrics push failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func resolveProfile(cfg *config.IngestConfig) (sources.Profile, error) {
	profile, err := sources.Lookup(cfg.Profile)
	if err != nil {
		return sources.Profile{}, err
	}
	if cfg.Dataset != "" {
		profile.Dataset = cfg.Dataset
	}
	profile = profile.
		WithPartitionConfig(models.TypeComment, cfg.CommentsConfig).
		WithPartitionConfig(models.TypePost, cfg.PostsConfig).
		WithSplit(cfg.Split)
	return profile, nil
}

func newOpener(cfg *config.IngestConfig) (streams.Opener, error) {
	switch cfg.Backend {
	case config.BACKEND_HF:
		client := clients.NewHuggingFaceClient(clients.HuggingFaceConfig{
			Endpoint: cfg.HFEndpoint,
			Token:    cfg.HFToken,
		})
		return streams.DatasetOpener{Client: client, PageSize: cfg.PageSize}, nil
	case config.BACKEND_JSONL:
		return streams.JSONLOpener{Dir: cfg.InputDir}, nil
	case config.BACKEND_REDDIT:
		client := clients.NewRedditClient(clients.RedditConfig{
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
		})
		return streams.RedditOpener{Client: client, PageSize: cfg.PageSize}, nil
	case config.BACKEND_KAFKA:
		return streams.KafkaOpener{Config: kafka_client.KafkaConfig{
			Broker:      cfg.KafkaBroker,
			GroupID:     cfg.KafkaGroupID,
			TopicPrefix: cfg.KafkaTopicPrefix,
			IdleTimeout: cfg.KafkaIdleTimeout,
		}}, nil
	}
	return nil, fmt.Errorf("[Main] unknown backend %q", cfg.Backend)
}

func exportDynamo(ctx context.Context, cfg *config.IngestConfig, all *table.Table) error {
	client, err := clients.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		return err
	}
	if _, err := db.NewDynamoExporter(client, cfg.DynamoTable).Export(ctx, all); err != nil {
		return err
	}
	return nil
}

func label(cfg *config.IngestConfig, writer *db.ParquetWriter, slug string, all *table.Table) error {
	scorer, err := labeling.NewHugotScorer(labeling.HugotConfig{
		ModelPath: cfg.LabelModelPath,
		ModelName: cfg.LabelModelName,
		ModelDir:  cfg.LabelModelDir,
		AILabel:   cfg.LabelAILabel,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := scorer.Close(); err != nil {
			slog.Warn("[Main] Failed to close detector session", slog.String("error", err.Error()))
		}
	}()

	opts := labeling.DefaultOptions()
	opts.MinChars = cfg.LabelMinChars
	opts.Threshold = cfg.LabelThreshold

	labeled, err := labeling.Annotate(all, slug+"_labeled_all", scorer, opts)
	if err != nil {
		return err
	}
	if _, err := writer.Write(labeled); err != nil {
		return err
	}
	for lbl, n := range labeling.Counts(labeled) {
		slog.Info("[Main] Label count", slog.String("ai_label", lbl), slog.Int("rows", n))
	}
	return nil
}

func markExported(ctx context.Context, registry *clients.ValkeyRegistry, source string, all *table.Table) error {
	ids := make(map[models.Type][]string)
	for i := 0; i < all.Len(); i++ {
		typ, _ := all.Value(i, table.ColType).(string)
		id, _ := all.Value(i, table.ColID).(string)
		ids[models.Type(typ)] = append(ids[models.Type(typ)], id)
	}
	var errs []error
	for typ, list := range ids {
		if err := registry.MarkExported(ctx, source, typ, list); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func printSummary(w io.Writer, res *processing.Result) {
	fmt.Fprintln(w, "category  pulled  accepted  rejected  duplicates  skipped  truncated")
	for _, s := range res.Stats {
		fmt.Fprintf(w, "%-8s  %6d  %8d  %8d  %10d  %7d  %v\n",
			s.Category, s.Pulled, s.Accepted, s.RejectedTotal(), s.Duplicates, s.Skipped, s.Truncated)
	}
	for _, t := range res.Tables {
		fmt.Fprintf(w, "%s: %d rows\n", t.Name, t.Len())
	}
	fmt.Fprintf(w, "%s: %d rows\n", res.All.Name, res.All.Len())
}
