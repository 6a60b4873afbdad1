package recorder

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "coinbasepro/config"
	"coinbasepro/feed"
	"coinbasepro/logger"
)

type capturedObject struct {
	Bucket string
	Key    string
	Body   []byte
}

type fakeStore struct {
	mu      sync.Mutex
	objects []capturedObject
}

func (f *fakeStore) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, capturedObject{
		Bucket: *params.Bucket,
		Key:    *params.Key,
		Body:   body,
	})
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) captured() []capturedObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedObject(nil), f.objects...)
}

func recorderConfig() *appconfig.Config {
	return &appconfig.Config{
		Recorder: appconfig.RecorderConfig{
			Enabled:       true,
			FlushInterval: time.Hour,
			S3: appconfig.S3Config{
				Region: "eu-west-1",
				Bucket: "feed-archive",
				Prefix: "coinbase",
			},
		},
	}
}

func testRecorder(store objectStore, source Source) *S3Recorder {
	return &S3Recorder{
		config: recorderConfig(),
		source: source,
		store:  store,
		wg:     &sync.WaitGroup{},
		log:    logger.GetLogger(),
	}
}

func feedMessage(typ, product, raw string) feed.Message {
	return feed.Message{Type: typ, ProductID: product, Raw: json.RawMessage(raw)}
}

func TestFlushGroupsByProduct(t *testing.T) {
	buffer := feed.NewBuffer(10)
	buffer.Add(feedMessage("ticker", "BTC-USD", `{"type":"ticker","product_id":"BTC-USD","price":"1"}`))
	buffer.Add(feedMessage("ticker", "ETH-USD", `{"type":"ticker","product_id":"ETH-USD","price":"2"}`))
	buffer.Add(feedMessage("ticker", "BTC-USD", `{"type":"ticker","product_id":"BTC-USD","price":"3"}`))

	store := &fakeStore{}
	r := testRecorder(store, buffer)
	r.flush(context.Background())

	objects := store.captured()
	if len(objects) != 2 {
		t.Fatalf("expected one object per product, got %d", len(objects))
	}
	for _, obj := range objects {
		if obj.Bucket != "feed-archive" {
			t.Errorf("unexpected bucket: %s", obj.Bucket)
		}
		if !strings.HasPrefix(obj.Key, "coinbase/") || !strings.HasSuffix(obj.Key, ".json.gz") {
			t.Errorf("unexpected key layout: %s", obj.Key)
		}
	}
	if buffer.Len() != 0 {
		t.Errorf("flush must drain the source, %d messages left", buffer.Len())
	}
}

func TestFlushEncodesJSONLines(t *testing.T) {
	buffer := feed.NewBuffer(10)
	buffer.Add(feedMessage("ticker", "BTC-USD", `{"type":"ticker","product_id":"BTC-USD","price":"1"}`))
	buffer.Add(feedMessage("match", "BTC-USD", `{"type":"match","product_id":"BTC-USD","size":"0.5"}`))

	store := &fakeStore{}
	r := testRecorder(store, buffer)
	r.flush(context.Background())

	objects := store.captured()
	if len(objects) != 1 {
		t.Fatalf("expected a single object, got %d", len(objects))
	}

	gz, err := gzip.NewReader(strings.NewReader(string(objects[0].Body)))
	if err != nil {
		t.Fatalf("object is not gzip: %v", err)
	}
	defer gz.Close()

	var types []string
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		var m struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		types = append(types, m.Type)
	}
	if len(types) != 2 || types[0] != "ticker" || types[1] != "match" {
		t.Errorf("unexpected lines, oldest must come first: %v", types)
	}
}

func TestFlushSkipsEmptySource(t *testing.T) {
	store := &fakeStore{}
	r := testRecorder(store, feed.NewBuffer(10))
	r.flush(context.Background())
	if len(store.captured()) != 0 {
		t.Errorf("empty source must not produce objects")
	}
}

func TestStopFlushesTail(t *testing.T) {
	buffer := feed.NewBuffer(10)
	store := &fakeStore{}
	r := testRecorder(store, buffer)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := r.Start(context.Background()); err == nil {
		t.Errorf("second Start must fail")
	}

	buffer.Add(feedMessage("ticker", "BTC-USD", `{"type":"ticker","product_id":"BTC-USD"}`))
	r.Stop()

	if len(store.captured()) != 1 {
		t.Fatalf("Stop must flush remaining messages, got %d objects", len(store.captured()))
	}
	// Stop again is a no-op.
	r.Stop()
}

func TestStopTerminatesReporter(t *testing.T) {
	buffer := feed.NewBuffer(10)
	r := testRecorder(&fakeStore{}, buffer)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Stop()

	// Both background goroutines join before Stop returns.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stacks := make([]byte, 1<<20)
		stacks = stacks[:runtime.Stack(stacks, true)]
		if !strings.Contains(string(stacks), "metricsReporter") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("metrics reporter still running after Stop")
}

func TestObjectKeyLayout(t *testing.T) {
	ts := time.Date(2023, 4, 5, 6, 7, 8, 900000000, time.UTC)
	key := objectKey("coinbase", "BTC-USD", ts)
	if key != "coinbase/BTC-USD/2023-04-05/060708.900000000.json.gz" {
		t.Errorf("unexpected key: %s", key)
	}
	bare := objectKey("", "system", ts)
	if !strings.HasPrefix(bare, "system/") {
		t.Errorf("empty prefix must not leave a leading slash: %s", bare)
	}
}

func TestGroupByProductDefaultsSystem(t *testing.T) {
	groups := groupByProduct([]feed.Message{
		feedMessage("subscriptions", "", `{"type":"subscriptions"}`),
		feedMessage("ticker", "BTC-USD", `{"type":"ticker","product_id":"BTC-USD"}`),
	})
	if len(groups["system"]) != 1 || len(groups["BTC-USD"]) != 1 {
		t.Errorf("unexpected grouping: %v", groups)
	}
}
