// Command ampqctl is the demo harness: it opens exactly two broker
// connections — one shared by a fleet of ASCII-generating RPC producers,
// one shared by a fleet of echoing consumers — and drives them under one
// of three goroutine-launch strategies, mirroring the reference harness's
// choice of task runtime.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	ampqconn "github.com/dihedron/ampq/amqpconn"
	"github.com/dihedron/ampq/consumer"
	"github.com/dihedron/ampq/internal/cliconfig"
	"github.com/dihedron/ampq/producer"
	"github.com/dihedron/ampq/registry"
	"github.com/dihedron/ampq/schema"
	"github.com/google/uuid"
)

func main() {
	cfg, err := cliconfig.Parse(os.Args[1:])
	if err != nil {
		slog.Error("failed to parse configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config) error {
	client := ampqconn.NewClient()

	producersConn, err := client.Connect(ctx, cfg.URI())
	if err != nil {
		return fmt.Errorf("connect producers connection: %w", err)
	}
	consumersConn, err := client.Connect(ctx, cfg.URI())
	if err != nil {
		return fmt.Errorf("connect consumers connection: %w", err)
	}

	conns := registry.New()
	if err := conns.Set("producers", producersConn); err != nil {
		return err
	}
	if err := conns.Set("consumers", consumersConn); err != nil {
		return err
	}
	defer func() {
		for name := range conns.GetAll() {
			if err := conns.Remove(name); err != nil {
				slog.Warn("failed to close connection", "connection", name, "error", err)
			}
		}
	}()

	slog.Info("starting demo harness",
		"runtime", cfg.Runtime,
		"producers", cfg.Producers,
		"consumers", cfg.Consumers,
		"exchange", cfg.Exchange,
		"queue", cfg.Queue,
	)

	consumerRun := func(i int) error {
		tag := fmt.Sprintf("consumer-%d-%s", i, uuid.New().String())
		c, err := consumer.NewConsumerBuilder(consumersConn, cfg.Exchange, cfg.Queue).
			WithQueueOptions(ampqconn.QueueOptions{Kind: ampqconn.Direct}).
			WithTag(tag).
			Build(ctx)
		if err != nil {
			return fmt.Errorf("build consumer %d: %w", i, err)
		}
		defer c.Close()
		return c.Run(ctx)
	}

	producerRun := func(i int) error {
		tag := fmt.Sprintf("producer-%d-%s", i, uuid.New().String())
		p, err := producer.NewProducerBuilder(producersConn, cfg.Exchange, cfg.Queue).
			WithQueueOptions(ampqconn.QueueOptions{Kind: ampqconn.Direct}).
			WithTag(tag).
			Build(ctx)
		if err != nil {
			return fmt.Errorf("build producer %d: %w", i, err)
		}
		defer p.Close()
		return generateASCII(ctx, p, uint64(i))
	}

	switch cfg.Runtime {
	case cliconfig.WorkerPool:
		return runWorkerPool(ctx, cfg, producerRun, consumerRun)
	case cliconfig.Pinned:
		return runPinned(ctx, cfg, producerRun, consumerRun)
	default:
		return runGoroutines(ctx, cfg, producerRun, consumerRun)
	}
}

// generateASCII sends one RPC per printable ASCII character ('!'..'~'),
// logging any mismatch between request and echoed response.
func generateASCII(ctx context.Context, p *producer.Producer, id uint64) error {
	for c := byte('!'); c <= '~'; c++ {
		if ctx.Err() != nil {
			return nil
		}
		msg := schema.New(id, string(c), schema.Hello)
		resp, err := p.RPC(ctx, schema.Encode(msg))
		if err != nil {
			return fmt.Errorf("rpc %q: %w", string(c), err)
		}
		if len(resp) == 0 {
			continue // reply was dropped/rejected/nacked by the peeker
		}
		got, err := schema.Decode(resp)
		if err != nil {
			return fmt.Errorf("decode echo of %q: %w", string(c), err)
		}
		if got.Msg != string(c) {
			slog.Warn("echo mismatch", "sent", string(c), "got", got.Msg)
		}
	}
	return nil
}

// runGoroutines launches one goroutine per producer and consumer, the
// default strategy (mirrors a work-stealing threaded runtime).
func runGoroutines(ctx context.Context, cfg cliconfig.Config, producerRun, consumerRun func(int) error) error {
	var wg sync.WaitGroup
	spawn(&wg, cfg.Consumers, consumerRun)
	spawn(&wg, cfg.Producers, producerRun)
	wg.Wait()
	return nil
}

func spawn(wg *sync.WaitGroup, n int, fn func(int) error) {
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := fn(i); err != nil {
				slog.Error("instance exited", "index", i, "error", err)
			}
		}(i)
	}
}

// runWorkerPool bounds concurrency to GOMAXPROCS workers pulling from a
// shared queue of producer/consumer instances, mirroring a fixed-size
// thread-pool executor.
func runWorkerPool(ctx context.Context, cfg cliconfig.Config, producerRun, consumerRun func(int) error) error {
	type job func() error
	jobs := make(chan job, cfg.Producers+cfg.Consumers)
	for i := 0; i < cfg.Consumers; i++ {
		i := i
		jobs <- func() error { return consumerRun(i) }
	}
	for i := 0; i < cfg.Producers; i++ {
		i := i
		jobs <- func() error { return producerRun(i) }
	}
	close(jobs)

	workers := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := j(); err != nil {
					slog.Error("worker-pool job failed", "error", err)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

// runPinned groups cfg.ConsumersPerThread consumers (and a proportional
// share of producers) onto goroutines that lock themselves to one OS
// thread for their lifetime, mirroring a per-thread local executor pool.
func runPinned(ctx context.Context, cfg cliconfig.Config, producerRun, consumerRun func(int) error) error {
	perThread := cfg.ConsumersPerThread
	if perThread <= 0 {
		perThread = 1
	}
	groups := (cfg.Consumers + perThread - 1) / perThread

	var wg sync.WaitGroup
	for g := 0; g < groups; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			start := g * perThread
			end := start + perThread
			if end > cfg.Consumers {
				end = cfg.Consumers
			}
			for i := start; i < end; i++ {
				if err := consumerRun(i); err != nil {
					slog.Error("pinned consumer failed", "index", i, "error", err)
				}
			}
		}()
	}

	producersPerGroup := (cfg.Producers + groups - 1) / groups
	for g := 0; g < groups; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			start := g * producersPerGroup
			end := start + producersPerGroup
			if end > cfg.Producers {
				end = cfg.Producers
			}
			for i := start; i < end; i++ {
				if err := producerRun(i); err != nil {
					slog.Error("pinned producer failed", "index", i, "error", err)
				}
			}
		}()
	}

	wg.Wait()
	return nil
}
