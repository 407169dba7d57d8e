// Command portrand seeds the persistent entropy pool and emits random bytes.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/VictoriaMetrics/metrics"

	"github.com/safing/portrand/config"
	"github.com/safing/portrand/info"
	"github.com/safing/portrand/log"
	"github.com/safing/portrand/random"
	"github.com/safing/portrand/run"
)

// maxSeedSize limits how much seed material is read from stdin.
const maxSeedSize = 1 << 20

var (
	configPath string
	poolPath   string

	errUsage = errors.New("invalid usage")
)

func init() {
	flag.StringVar(&configPath, "config", "", "load configuration from a JSON or YAML file")
	flag.StringVar(&poolPath, "pool", "", "set the location of the persistent pool file")
}

type command func(ctx context.Context, args []string) error

var commands = map[string]command{
	"seed":    seedCmd,
	"bytes":   bytesCmd,
	"metrics": metricsCmd,
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags] <command> [command flags]

Commands:
  seed       mix stdin into the persistent entropy pool
  bytes      print random bytes as hex (-n count, -slow, -nonzero)
  metrics    print metrics in Prometheus format after a sample draw

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	info.Set("portrand", "", "AGPL")

	flag.Usage = usage
	flag.Parse()

	var args []string
	cmd, ok := commands[flag.Arg(0)]
	switch {
	case ok:
		args = flag.Args()[1:]
	case flag.NArg() == 0:
		// Let modules handle -help and -version.
		cmd = func(context.Context, []string) error {
			usage()
			return errUsage
		}
	default:
		usage()
		os.Exit(2)
	}

	// Keep stdout clean for output.
	log.SetOutput(os.Stderr)
	log.SetLogLevel(log.WarningLevel)

	if configPath != "" {
		if err := config.LoadFile(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to load config: %s\n", err)
			os.Exit(1)
		}
	}
	if poolPath != "" {
		if err := config.SetConfigOption(random.CfgPoolPath, poolPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			os.Exit(1)
		}
	}

	os.Exit(run.Run(func(ctx context.Context) error {
		err := cmd(ctx, args)
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}))
}

func seedCmd(_ context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("seed takes no arguments: %w", errUsage)
	}

	seed, err := io.ReadAll(io.LimitReader(os.Stdin, maxSeedSize))
	if err != nil {
		return fmt.Errorf("failed to read seed: %w", err)
	}
	n := len(seed)

	if err := random.SupplySeed(seed); err != nil {
		return err
	}
	fmt.Printf("mixed %d bytes into the persistent pool\n", n)
	return nil
}

func bytesCmd(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("bytes", flag.ContinueOnError)
	n := fs.Int("n", 32, "amount of bytes")
	slow := fs.Bool("slow", false, "use the slow engine")
	nonZero := fs.Bool("nonzero", false, "only emit non-zero bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 0 {
		return fmt.Errorf("negative byte count: %w", errUsage)
	}

	var engine interface {
		GetBytes([]byte) error
		GetNonZeroBytes([]byte) error
	}
	var err error
	if *slow {
		engine, err = random.DefaultSlow()
	} else {
		engine, err = random.DefaultFast()
	}
	if err != nil {
		return err
	}

	b := make([]byte, *n)
	defer clear(b)
	if *nonZero {
		err = engine.GetNonZeroBytes(b)
	} else {
		err = engine.GetBytes(b)
	}
	if err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(b))
	return nil
}

func metricsCmd(_ context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("metrics takes no arguments: %w", errUsage)
	}

	if _, err := random.Bytes(32); err != nil {
		return err
	}
	metrics.WritePrometheus(os.Stdout, true)
	return nil
}
