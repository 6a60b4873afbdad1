// Package recorder archives feed messages to Amazon S3 as compressed
// JSON-lines batches, one object per product per flush interval.
package recorder

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "coinbasepro/config"
	"coinbasepro/feed"
	"coinbasepro/logger"
)

// Source supplies the messages to archive. A feed.Buffer satisfies it.
type Source interface {
	Drain() []feed.Message
}

// objectStore is the slice of the S3 API the recorder needs.
type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Recorder drains a message source on a fixed cadence and uploads
// each batch to S3. Messages are grouped by product so downstream
// consumers can list a single product's history by key prefix.
type S3Recorder struct {
	config *appconfig.Config
	source Source
	store  objectStore

	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	stop    chan struct{}
	log     *logger.Log

	// Metrics
	batchesWritten  int64
	messagesWritten int64
	errorsCount     int64
}

// NewS3Recorder configures the AWS SDK and prepares a recorder that
// archives messages drained from the given source.
func NewS3Recorder(cfg *appconfig.Config, source Source) (*S3Recorder, error) {
	log := logger.GetLogger()
	ctx := context.Background()

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Recorder.S3.Region)}
	if cfg.Recorder.S3.AccessKeyID != "" && cfg.Recorder.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Recorder.S3.AccessKeyID,
				cfg.Recorder.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("s3_recorder").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	if cfg.Recorder.S3.Bucket == "" {
		return nil, fmt.Errorf("missing recorder bucket")
	}

	recorder := &S3Recorder{
		config: cfg,
		source: source,
		store:  s3.NewFromConfig(awsCfg),
		wg:     &sync.WaitGroup{},
		log:    log,
	}

	log.WithComponent("s3_recorder").WithFields(logger.Fields{
		"region": cfg.Recorder.S3.Region,
		"bucket": cfg.Recorder.S3.Bucket,
	}).Debug("s3 recorder initialized")

	return recorder, nil
}

// Start launches the flush loop. Batches are uploaded every flush
// interval until the context is cancelled or Stop is called.
func (r *S3Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("s3 recorder already running")
	}
	r.running = true
	r.ctx = ctx
	r.stop = make(chan struct{})
	r.mu.Unlock()

	log := r.log.WithComponent("s3_recorder").WithFields(logger.Fields{"operation": "start"})
	log.Debug("starting s3 recorder")

	r.wg.Add(2)
	go r.flushLoop()
	go r.metricsReporter(ctx)

	log.Debug("s3 recorder started successfully")
	return nil
}

// Stop performs a final flush and waits for the flush loop to finish.
func (r *S3Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stop)
	r.mu.Unlock()

	r.log.WithComponent("s3_recorder").Debug("stopping s3 recorder")
	r.wg.Wait()

	// Final flush runs on its own context so a cancelled run context
	// does not lose the tail of the stream.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	r.flush(ctx)
	r.log.WithComponent("s3_recorder").Debug("s3 recorder stopped")
}

func (r *S3Recorder) flushLoop() {
	defer r.wg.Done()

	interval := r.config.Recorder.FlushInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.flush(r.ctx)
		}
	}
}

// flush drains the source and uploads one object per product.
func (r *S3Recorder) flush(ctx context.Context) {
	messages := r.source.Drain()
	if len(messages) == 0 {
		return
	}

	log := r.log.WithComponent("s3_recorder").WithFields(logger.Fields{
		"message_count": len(messages),
		"operation":     "flush",
	})

	now := time.Now().UTC()
	for product, batch := range groupByProduct(messages) {
		body, err := encodeBatch(batch)
		if err != nil {
			atomic.AddInt64(&r.errorsCount, 1)
			log.WithError(err).Error("failed to encode batch")
			continue
		}

		key := objectKey(r.config.Recorder.S3.Prefix, product, now)
		_, err = r.store.PutObject(ctx, &s3.PutObjectInput{
			Bucket:          aws.String(r.config.Recorder.S3.Bucket),
			Key:             aws.String(key),
			Body:            bytes.NewReader(body),
			ContentType:     aws.String("application/x-ndjson"),
			ContentEncoding: aws.String("gzip"),
		})
		if err != nil {
			atomic.AddInt64(&r.errorsCount, 1)
			log.WithFields(logger.Fields{"key": key}).WithError(err).Error("failed to upload batch")
			continue
		}

		atomic.AddInt64(&r.batchesWritten, 1)
		atomic.AddInt64(&r.messagesWritten, int64(len(batch)))
		log.WithFields(logger.Fields{
			"key":              key,
			"batch_size_bytes": len(body),
			"message_count":    len(batch),
		}).Info("batch archived")
		r.log.LogMetric("s3_recorder", "messages_written", int64(len(batch)), "counter", logger.Fields{
			"product": product,
		})
	}
}

// groupByProduct splits a drained batch by product id. Messages with
// no product, such as subscription confirmations, land under "system".
func groupByProduct(messages []feed.Message) map[string][]feed.Message {
	groups := make(map[string][]feed.Message)
	for _, m := range messages {
		product := m.ProductID
		if product == "" {
			product = "system"
		}
		groups[product] = append(groups[product], m)
	}
	return groups
}

// encodeBatch gzips the raw messages as JSON lines, oldest first.
func encodeBatch(messages []feed.Message) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	for _, m := range messages {
		if _, err := gz.Write(m.Raw); err != nil {
			return nil, fmt.Errorf("compress message: %w", err)
		}
		if _, err := gz.Write([]byte("\n")); err != nil {
			return nil, fmt.Errorf("compress message: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("finalize batch: %w", err)
	}
	return buf.Bytes(), nil
}

// objectKey builds the S3 key for a batch. Keys sort by product and
// then chronologically.
func objectKey(prefix, product string, ts time.Time) string {
	return path.Join(prefix, product, ts.Format("2006-01-02"), ts.Format("150405.000000000")+".json.gz")
}

func (r *S3Recorder) metricsReporter(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reportMetrics()
		}
	}
}

func (r *S3Recorder) reportMetrics() {
	batchesWritten := atomic.LoadInt64(&r.batchesWritten)
	messagesWritten := atomic.LoadInt64(&r.messagesWritten)
	errorsCount := atomic.LoadInt64(&r.errorsCount)

	log := r.log.WithComponent("s3_recorder")
	log.LogMetric("s3_recorder", "batches_written", batchesWritten, "counter", logger.Fields{})
	log.LogMetric("s3_recorder", "messages_written", messagesWritten, "counter", logger.Fields{})
	log.LogMetric("s3_recorder", "errors_count", errorsCount, "counter", logger.Fields{})

	log.WithFields(logger.Fields{
		"batches_written":  batchesWritten,
		"messages_written": messagesWritten,
		"errors_count":     errorsCount,
	}).Debug("s3 recorder metrics")
}
