package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pior/mpd"
	"github.com/pior/mpd/protocol"
	"github.com/pior/mpd/response"
	"github.com/pior/mpd/transfer"
	flag "github.com/spf13/pflag"
)

const defaultPort = "6600"

func main() {
	var (
		addr     string
		password string
		timeout  time.Duration
		pairs    bool
		transOut string
		stats    bool
		verbose  bool
	)

	flag.StringVarP(&addr, "addr", "a", "", "server address, host:port or socket path (default from MPD_HOST/MPD_PORT)")
	flag.StringVarP(&password, "password", "p", "", "server password")
	flag.DurationVarP(&timeout, "timeout", "t", 5*time.Second, "timeout for the whole exchange")
	flag.BoolVar(&pairs, "pairs", false, "print each reply as key/value pairs")
	flag.StringVar(&transOut, "transfer", "", "write the reply batch in transfer form to <path> (- for stdout)")
	flag.BoolVar(&stats, "stats", false, "print client statistics on exit")
	flag.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mpd-cli [flags] <command> [<command>...]\n\n")
		fmt.Fprintf(os.Stderr, "Each argument is one command line, e.g. 'find artist Nina'.\n")
		fmt.Fprintf(os.Stderr, "Several commands are sent as one command list.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	envAddr, envPassword := resolveAddr(os.Getenv("MPD_HOST"), os.Getenv("MPD_PORT"))
	if addr == "" {
		addr = envAddr
	}
	if password == "" {
		password = envPassword
	}

	cmds, err := parseCommands(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	client, err := mpd.NewClient(mpd.Config{
		Addr:     addr,
		Password: password,
		MaxSize:  1,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	var b *response.Batch
	if len(cmds) == 1 {
		b, err = client.Do(ctx, cmds[0])
	} else {
		b, err = client.DoList(ctx, cmds...)
	}
	duration := time.Since(start)

	if b != nil {
		if err := output(b, pairs, transOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if stats {
		printStats(client)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (took %v)\n", err, duration)
		os.Exit(1)
	}
	logger.Debug("done", "segments", b.Len(), "took", duration)
}

// resolveAddr builds the server address from the MPD_HOST and MPD_PORT
// variables. MPD_HOST may carry a password as password@host.
func resolveAddr(host, port string) (addr, password string) {
	if at := strings.IndexByte(host, '@'); at > 0 {
		password, host = host[:at], host[at+1:]
	}

	if host == "" {
		host = "localhost"
	}
	if strings.HasPrefix(host, "/") || strings.HasPrefix(host, "@") {
		return host, password
	}

	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(host, port), password
}

func parseCommands(args []string) ([]*protocol.Command, error) {
	cmds := make([]*protocol.Command, 0, len(args))
	for _, arg := range args {
		fields := strings.Fields(arg)
		if len(fields) == 0 {
			return nil, errors.New("empty command")
		}
		cmds = append(cmds, protocol.NewCommand(fields[0], fields[1:]...))
	}
	return cmds, nil
}

func output(b *response.Batch, pairs bool, transOut string) error {
	if transOut != "" {
		return writeTransfer(b, transOut)
	}

	for i, segment := range b.All() {
		if b.Len() > 1 {
			fmt.Printf("--- reply %d\n", i)
		}

		if !pairs {
			if segment != "" {
				fmt.Println(segment)
			}
			continue
		}

		parsed, err := protocol.Pairs().Interpret(segment)
		if err != nil {
			return err
		}
		for _, pair := range parsed {
			fmt.Printf("  %-20s %s\n", pair.Key, pair.Value)
		}
	}
	return nil
}

func writeTransfer(b *response.Batch, path string) error {
	if path == "-" {
		return transfer.Write(os.Stdout, b)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := transfer.Write(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(client *mpd.Client) {
	stats := client.Stats()
	server := client.ServerStats()

	fmt.Fprintf(os.Stderr, "Server %s:\n", server.Addr)
	fmt.Fprintf(os.Stderr, "  Commands: %d\n", stats.Commands)
	fmt.Fprintf(os.Stderr, "  Command Lists: %d\n", stats.CommandLists)
	fmt.Fprintf(os.Stderr, "  Segments: %d\n", stats.Segments)
	fmt.Fprintf(os.Stderr, "  Acks: %d\n", stats.Acks)
	fmt.Fprintf(os.Stderr, "  Errors: %d\n", stats.Errors)
	fmt.Fprintf(os.Stderr, "  Created Connections: %d\n", server.PoolStats.CreatedConns)
	fmt.Fprintf(os.Stderr, "  Destroyed Connections: %d\n", server.PoolStats.DestroyedConns)
}
