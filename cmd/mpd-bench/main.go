package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pior/mpd"
	"github.com/pior/mpd/protocol"
	"github.com/pior/mpd/response"
	flag "github.com/spf13/pflag"
)

type OperationType string

const (
	Status      OperationType = "status"
	CommandList OperationType = "command-list"
	Ack         OperationType = "ack"
	All         OperationType = "all"
)

type BenchmarkResult struct {
	Operation    OperationType
	Duration     time.Duration
	TotalOps     int64
	Successes    int64
	Failures     int64
	Segments     int64
	AvgLatency   time.Duration
	OpsPerSecond float64
	Correctness  bool
	ErrorMessage string
}

// operation runs one request against the server.
type operation func(ctx context.Context, client *mpd.Client) (*response.Batch, error)

var listCommands = []*protocol.Command{
	protocol.NewCommand("status"),
	protocol.NewCommand("currentsong"),
	protocol.NewCommand("ping"),
	protocol.NewCommand("stats"),
}

var operations = map[OperationType]struct {
	run      operation
	segments int
	wantAck  bool
}{
	Status: {
		run: func(ctx context.Context, client *mpd.Client) (*response.Batch, error) {
			return client.Do(ctx, protocol.NewCommand("status"))
		},
		segments: 1,
	},
	CommandList: {
		run: func(ctx context.Context, client *mpd.Client) (*response.Batch, error) {
			return client.DoList(ctx, listCommands...)
		},
		segments: len(listCommands),
	},
	Ack: {
		run: func(ctx context.Context, client *mpd.Client) (*response.Batch, error) {
			return client.Do(ctx, protocol.NewCommand("nosuchcommand"))
		},
		wantAck: true,
	},
}

func main() {
	var (
		operation   = flag.String("operation", "all", "Operation type: status, command-list, ack, or all")
		duration    = flag.Duration("duration", 5*time.Second, "Duration to run benchmarks")
		concurrency = flag.Int("concurrency", 1, "Number of concurrent workers")
		addr        = flag.String("addr", "localhost:6600", "Server address")
		password    = flag.String("password", "", "Server password")
		poolSize    = flag.Int32("pool-size", 4, "Maximum connections in the pool")
		poolKind    = flag.String("pool", "channel", "Pool implementation: channel or puddle")
	)
	flag.Parse()

	fmt.Printf("MPD Benchmark Tool\n")
	fmt.Printf("==================\n")
	fmt.Printf("Operation: %s\n", *operation)
	fmt.Printf("Duration: %v\n", *duration)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Server: %s\n", *addr)
	fmt.Printf("Pool: %s (%d)\n", *poolKind, *poolSize)
	fmt.Println()

	config := mpd.Config{
		Addr:     *addr,
		Password: *password,
		MaxSize:  *poolSize,
	}
	switch *poolKind {
	case "channel":
		config.Pool = mpd.NewChannelPool
	case "puddle":
		config.Pool = mpd.NewPuddlePool
	default:
		log.Fatalf("Unknown pool: %s", *poolKind)
	}

	client, err := mpd.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	fmt.Print("Testing connection...")
	if err := client.Ping(context.Background()); err != nil {
		fmt.Printf(" failed: %v\n", err)
		fmt.Printf("Make sure mpd is running on %s\n", *addr)
		return
	}
	fmt.Println(" success!")
	fmt.Println()

	if OperationType(*operation) == All {
		for _, op := range []OperationType{Status, CommandList, Ack} {
			fmt.Printf("\n--- Running %s benchmark ---\n", op)
			printResult(runBenchmark(client, op, *duration, *concurrency))
			time.Sleep(500 * time.Millisecond)
		}
	} else {
		printResult(runBenchmark(client, OperationType(*operation), *duration, *concurrency))
	}

	printPoolStats(client)
}

func runBenchmark(client *mpd.Client, op OperationType, duration time.Duration, concurrency int) *BenchmarkResult {
	bench, ok := operations[op]
	if !ok {
		return &BenchmarkResult{
			Operation:    op,
			ErrorMessage: fmt.Sprintf("Unknown operation: %s", op),
		}
	}

	ctx := context.Background()
	result := &BenchmarkResult{Operation: op, Correctness: true}
	var totalOps, successes, failures, segments, totalLatency atomic.Int64
	var mismatch sync.Once

	startTime := time.Now()
	var wg sync.WaitGroup

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for time.Since(startTime) < duration {
				opStart := time.Now()
				b, err := bench.run(ctx, client)
				totalLatency.Add(int64(time.Since(opStart)))
				totalOps.Add(1)

				if bench.wantAck {
					if protocol.IsAck(err) {
						successes.Add(1)
					} else {
						failures.Add(1)
					}
					continue
				}

				if err != nil {
					failures.Add(1)
					continue
				}
				successes.Add(1)

				n := b.Len()
				segments.Add(int64(n))
				if n != bench.segments {
					mismatch.Do(func() {
						result.Correctness = false
						result.ErrorMessage = fmt.Sprintf("Expected %d segments, got %d", bench.segments, n)
					})
				}
			}
		}()
	}

	wg.Wait()

	result.Duration = time.Since(startTime)
	result.TotalOps = totalOps.Load()
	result.Successes = successes.Load()
	result.Failures = failures.Load()
	result.Segments = segments.Load()

	if result.TotalOps > 0 {
		result.AvgLatency = time.Duration(totalLatency.Load() / result.TotalOps)
		result.OpsPerSecond = float64(result.TotalOps) / result.Duration.Seconds()
	}

	return result
}

func printResult(result *BenchmarkResult) {
	fmt.Printf("Operation: %s\n", result.Operation)
	fmt.Printf("Duration: %v\n", result.Duration)
	fmt.Printf("Total Operations: %d\n", result.TotalOps)
	fmt.Printf("Successes: %d\n", result.Successes)
	fmt.Printf("Failures: %d\n", result.Failures)
	fmt.Printf("Segments: %d\n", result.Segments)
	if result.TotalOps > 0 {
		fmt.Printf("Success Rate: %.2f%%\n", float64(result.Successes)/float64(result.TotalOps)*100)
		fmt.Printf("Ops/sec: %.2f\n", result.OpsPerSecond)
		fmt.Printf("Avg Latency: %v\n", result.AvgLatency)
	}
	fmt.Printf("Correctness: %t\n", result.Correctness)
	if result.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", result.ErrorMessage)
	}
	fmt.Println()
}

func printPoolStats(client *mpd.Client) {
	stats := client.ServerStats().PoolStats

	fmt.Printf("Pool:\n")
	fmt.Printf("  Connections Created: %d\n", stats.CreatedConns)
	fmt.Printf("  Connections Destroyed: %d\n", stats.DestroyedConns)
	fmt.Printf("  Total Acquires: %d\n", stats.AcquireCount)
	fmt.Printf("  Acquires That Waited: %d\n", stats.AcquireWaitCount)
	if stats.AcquireWaitCount > 0 {
		fmt.Printf("  Average Wait Time: %v\n", time.Duration(stats.AcquireWaitTimeNs/stats.AcquireWaitCount))
	}
	fmt.Printf("  Acquire Errors: %d\n", stats.AcquireErrors)
}
