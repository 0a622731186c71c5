package mpd_test

import (
	"context"
	"fmt"
	"time"

	"github.com/pior/mpd"
	"github.com/pior/mpd/protocol"
)

func ExampleClient_DoList() {
	client, err := mpd.NewClient(mpd.Config{Addr: "localhost:6600"})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	b, err := client.DoList(ctx,
		protocol.NewCommand("status"),
		protocol.NewCommand("currentsong"),
	)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	for i, reply := range b.All() {
		fmt.Printf("reply %d:\n%s\n", i, reply)
	}
}

func ExampleClient_Do() {
	client, err := mpd.NewClient(mpd.Config{Addr: "localhost:6600"})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	b, err := client.Do(context.Background(), protocol.NewCommand("listall"))
	if protocol.IsAck(err, protocol.AckPermission) {
		fmt.Println("Not allowed")
		return
	}
	if err != nil {
		panic(err)
	}

	files, err := protocol.DecodeAt(b, 0, protocol.Values("file"))
	if err != nil {
		panic(err)
	}
	fmt.Printf("%d files\n", len(files))
}

// Example demonstrating how to guard a server with a circuit breaker
func ExampleNewCircuitBreakerConfig() {
	client, err := mpd.NewClient(mpd.Config{
		Addr:              "localhost:6600",
		NewCircuitBreaker: mpd.NewCircuitBreakerConfig(3, time.Minute, 10*time.Second),
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	_ = client.Ping(context.Background())

	stats := client.ServerStats()
	fmt.Printf("Circuit Breaker: %s\n", stats.CircuitBreakerState)
	fmt.Printf("  Requests: %d\n", stats.CircuitBreakerCounts.Requests)
	fmt.Printf("  Failures: %d\n", stats.CircuitBreakerCounts.TotalFailures)
}

// Example demonstrating how to collect pool stats
func ExampleClient_ServerStats() {
	client, err := mpd.NewClient(mpd.Config{
		Addr:    "localhost:6600",
		MaxSize: 4,
		Pool:    mpd.NewPuddlePool,
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	_ = client.Ping(context.Background())

	stats := client.Stats()
	fmt.Printf("Commands: %d, Lists: %d, Acks: %d, Errors: %d\n",
		stats.Commands, stats.CommandLists, stats.Acks, stats.Errors)

	poolStats := client.ServerStats().PoolStats
	fmt.Printf("Pool Status:\n")
	fmt.Printf("  Total Connections: %d\n", poolStats.TotalConns)
	fmt.Printf("  Idle Connections: %d\n", poolStats.IdleConns)
	fmt.Printf("  Active Connections: %d\n", poolStats.ActiveConns)
	if poolStats.AcquireWaitCount > 0 {
		avgWait := time.Duration(poolStats.AcquireWaitTimeNs / poolStats.AcquireWaitCount)
		fmt.Printf("  Average Wait Time: %v\n", avgWait)
	}
}
