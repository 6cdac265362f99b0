// Package heads watches for new chain heads over a websocket subscription,
// polling the active connection when the subscription is unavailable.
package heads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	connApp "github.com/fd1az/web3-connect/business/connection/app"
	"github.com/fd1az/web3-connect/business/dashboard/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
	"github.com/fd1az/web3-connect/internal/circuitbreaker"
	"github.com/fd1az/web3-connect/internal/logger"
)

const (
	tracerName = "github.com/fd1az/web3-connect/business/dashboard/infra/heads"
	meterName  = "github.com/fd1az/web3-connect/business/dashboard/infra/heads"
)

// Config holds configuration for the head watcher.
type Config struct {
	WSURL          string        // Subscription endpoint; empty polls only
	PollInterval   time.Duration // Polling interval while not subscribed
	ReconnectDelay time.Duration // How long to poll before retrying the subscription
	BufferSize     int           // Block channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(wsURL string) Config {
	return Config{
		WSURL:          wsURL,
		PollInterval:   12 * time.Second, // ~1 block time
		ReconnectDelay: time.Minute,
		BufferSize:     16,
	}
}

// headClient is the subscription side of an ethclient.
type headClient interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	Close()
}

type watcherMetrics struct {
	blocksReceived   metric.Int64Counter
	subscribeErrors  metric.Int64Counter
	mode             metric.Int64Gauge
	blockLatency     metric.Float64Histogram
	pollFallbackUsed metric.Int64Counter
}

// Watcher implements app.HeadSource.
type Watcher struct {
	config  Config
	primary connApp.ContextReader
	network connApp.ContextReader
	logger  logger.LoggerInterface
	dial    func(ctx context.Context, url string) (headClient, error)

	mode      atomic.Value // domain.HeadMode
	lastBlock atomic.Uint64

	blocks  chan *domain.Block
	done    chan struct{}
	wg      sync.WaitGroup
	started atomic.Bool
	closed  atomic.Bool
	closeMu sync.Mutex

	pollCB *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *watcherMetrics
}

// NewWatcher creates a head watcher that polls through whichever connection
// context is active.
func NewWatcher(cfg Config, primary, network connApp.ContextReader, log logger.LoggerInterface) (*Watcher, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	w := &Watcher{
		config:  cfg,
		primary: primary,
		network: network,
		logger:  log,
		dial: func(ctx context.Context, url string) (headClient, error) {
			return ethclient.DialContext(ctx, url)
		},
		blocks: make(chan *domain.Block, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}
	w.mode.Store(domain.HeadModeStopped)

	if err := w.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("head-poll")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	w.pollCB = circuitbreaker.New[*types.Header](cbCfg)

	return w, nil
}

func (w *Watcher) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	w.metrics = &watcherMetrics{}

	w.metrics.blocksReceived, err = meter.Int64Counter(
		"eth_blocks_received_total",
		metric.WithDescription("Total Ethereum blocks received"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	w.metrics.subscribeErrors, err = meter.Int64Counter(
		"eth_subscribe_errors_total",
		metric.WithDescription("Total head subscription and poll errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	w.metrics.mode, err = meter.Int64Gauge(
		"eth_head_mode",
		metric.WithDescription("Head watcher mode (0=stopped, 1=subscribed, 2=polling, 3=reconnecting)"),
		metric.WithUnit("{mode}"),
	)
	if err != nil {
		return err
	}

	w.metrics.blockLatency, err = meter.Float64Histogram(
		"eth_block_latency_ms",
		metric.WithDescription("Latency from block timestamp to receipt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	w.metrics.pollFallbackUsed, err = meter.Int64Counter(
		"eth_poll_fallback_total",
		metric.WithDescription("Times polling replaced the subscription"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Subscribe starts watching and returns the block channel. It may be called once.
func (w *Watcher) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	if w.closed.Load() {
		return nil, apperror.New(apperror.CodeEthereumSubscribeFailed,
			apperror.WithContext("watcher is closed"))
	}
	if !w.started.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.CodeEthereumSubscribeFailed,
			apperror.WithContext("already subscribed"))
	}

	w.wg.Add(1)
	go w.run(ctx)

	return w.blocks, nil
}

// Mode returns how heads are currently observed.
func (w *Watcher) Mode() domain.HeadMode {
	return w.mode.Load().(domain.HeadMode)
}

// LastBlock returns the highest block emitted.
func (w *Watcher) LastBlock() uint64 {
	return w.lastBlock.Load()
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		if w.config.WSURL != "" {
			err := w.subscribe(ctx)
			if w.stopped(ctx) {
				return
			}
			w.logger.Warn(ctx, "head subscription unavailable, polling", "error", err)
			w.metrics.subscribeErrors.Add(ctx, 1)
			w.metrics.pollFallbackUsed.Add(ctx, 1)
		}

		if !w.poll(ctx) {
			return
		}
		w.setMode(domain.HeadModeReconnecting)
	}
}

func (w *Watcher) stopped(ctx context.Context) bool {
	select {
	case <-w.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// subscribe streams heads until the subscription fails or the watcher stops.
func (w *Watcher) subscribe(ctx context.Context) error {
	dialCtx, span := w.tracer.Start(ctx, "eth.heads.subscribe",
		trace.WithAttributes(attribute.String("url", w.config.WSURL)),
	)
	client, err := w.dial(dialCtx, w.config.WSURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		span.End()
		return fmt.Errorf("dial ws: %w", err)
	}
	defer client.Close()

	headers := make(chan *types.Header, w.config.BufferSize)
	sub, err := client.SubscribeNewHead(ctx, headers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "subscribe failed")
		span.End()
		return fmt.Errorf("subscribe new heads: %w", err)
	}
	defer sub.Unsubscribe()

	span.SetStatus(codes.Ok, "subscribed")
	span.End()

	w.setMode(domain.HeadModeSubscribed)
	w.logger.Info(ctx, "subscribed to new heads via ws")

	for {
		select {
		case <-w.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return err
		case header := <-headers:
			if header != nil {
				w.processHeader(ctx, header, false)
			}
		}
	}
}

// poll reads the latest header on an interval. With a websocket configured
// it returns true after ReconnectDelay so the subscription is retried; it
// returns false once the watcher stops.
func (w *Watcher) poll(ctx context.Context) bool {
	w.setMode(domain.HeadModePolling)
	w.logger.Info(ctx, "polling for new heads", "interval", w.config.PollInterval)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	var retry <-chan time.Time
	if w.config.WSURL != "" {
		timer := time.NewTimer(w.config.ReconnectDelay)
		defer timer.Stop()
		retry = timer.C
	}

	w.pollLatest(ctx)

	for {
		select {
		case <-w.done:
			return false
		case <-ctx.Done():
			return false
		case <-retry:
			return true
		case <-ticker.C:
			w.pollLatest(ctx)
		}
	}
}

func (w *Watcher) pollLatest(ctx context.Context) {
	ctx, span := w.tracer.Start(ctx, "eth.heads.poll")
	defer span.End()

	library := connApp.SelectActive(w.primary, w.network).Snapshot().Library
	if library == nil {
		span.AddEvent("no_active_connection")
		return
	}

	header, err := w.pollCB.Execute(func() (*types.Header, error) {
		return library.Backend().HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		w.logger.Error(ctx, "head poll failed", "error", err)
		w.metrics.subscribeErrors.Add(ctx, 1)
		return
	}

	w.processHeader(ctx, header, true)
	span.SetStatus(codes.Ok, "polled")
}

// processHeader emits header unless an equal or higher block was already sent.
func (w *Watcher) processHeader(ctx context.Context, header *types.Header, polled bool) {
	block := domain.BlockFromHeader(header)
	if block.Number <= w.lastBlock.Load() {
		return
	}

	ctx, span := w.tracer.Start(ctx, "eth.heads.process",
		trace.WithAttributes(
			attribute.Int64("block_number", int64(block.Number)),
			attribute.Bool("polled", polled),
		),
	)
	defer span.End()

	latency := time.Since(block.Timestamp)
	w.metrics.blockLatency.Record(ctx, float64(latency.Milliseconds()))
	w.lastBlock.Store(block.Number)

	select {
	case w.blocks <- block:
		w.metrics.blocksReceived.Add(ctx, 1)
		w.logger.Debug(ctx, "block received",
			"number", block.Number,
			"latency_ms", latency.Milliseconds())
	default:
		span.AddEvent("block_dropped_buffer_full")
		w.logger.Warn(ctx, "block dropped, buffer full", "number", block.Number)
	}
}

// Close stops watching and closes the block channel.
func (w *Watcher) Close() error {
	w.closeMu.Lock()
	defer w.closeMu.Unlock()

	if w.closed.Load() {
		return nil
	}
	w.closed.Store(true)

	close(w.done)
	w.wg.Wait()
	close(w.blocks)
	w.setMode(domain.HeadModeStopped)

	return nil
}

func (w *Watcher) setMode(mode domain.HeadMode) {
	w.mode.Store(mode)

	var value int64
	switch mode {
	case domain.HeadModeSubscribed:
		value = 1
	case domain.HeadModePolling:
		value = 2
	case domain.HeadModeReconnecting:
		value = 3
	}
	w.metrics.mode.Record(context.Background(), value)
}
