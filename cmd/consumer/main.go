package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/example/carpool/internal/livemap"
	"github.com/example/carpool/internal/logging"
	"github.com/example/carpool/internal/models"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total position report messages consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	cacheUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_cache_updates_total",
		Help: "Total position reports applied to the cache",
	})
	cacheErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_cache_errors_total",
		Help: "Total cache update errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, cacheUpdates, cacheErrors)
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	logger := logging.NewLogger(os.Getenv("LOG_LEVEL"))

	brokers := []string{"localhost:9092"}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = brokers[:0]
		for _, b := range strings.Split(v, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "ride-positions"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "carpool-consumer"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	cache := livemap.NewRedisCache(redisAddr, os.Getenv("REDIS_PASSWORD"))

	// metrics and health sidecar
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := cache.Ping(r.Context()); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		logger.Info("metrics/health listening", "addr", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = cache.Close()
	}()

	logger.Info("consumer listening", "topic", topic, "brokers", brokers, "group", group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("shutting down consumer")
				return
			}
			logger.Warn("kafka read error", "error", err, "backoff", backoff)
			if !sleepCtx(ctx, backoff) {
				logger.Info("shutting down consumer")
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		msgsConsumed.Inc()

		var rpt models.PositionReport
		if err := json.Unmarshal(m.Value, &rpt); err != nil || rpt.RideID == "" {
			msgsInvalid.Inc()
			logger.Warn("invalid message", "error", err)
			continue
		}

		if err := updateCacheWithRetry(ctx, cache, rpt, 3, 200*time.Millisecond); err != nil {
			cacheErrors.Inc()
			logger.Error("cache update failed", "ride_id", rpt.RideID, "error", err)
			continue
		}
		cacheUpdates.Inc()
	}
}

// CacheUpdater is the subset of cache operations the apply path needs,
// kept small for tests.
type CacheUpdater interface {
	Publish(ctx context.Context, rpt models.PositionReport) error
}

// updateCacheWithRetry applies one report with bounded retry/backoff.
// A cancelled context cuts the backoff short.
func updateCacheWithRetry(ctx context.Context, c CacheUpdater, rpt models.PositionReport, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = c.Publish(ctx, rpt); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if !sleepCtx(ctx, delay) {
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}

// sleepCtx waits for d, returning false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
