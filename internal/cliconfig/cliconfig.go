// Package cliconfig parses the demo harness's command-line flags and
// environment fallback into a ready-to-dial broker URI and runtime tuning
// knobs.
package cliconfig

import (
	"flag"
	"fmt"
	"os"
)

// Runtime selects how cmd/ampqctl launches its producer/consumer
// goroutines.
type Runtime string

const (
	Goroutines Runtime = "goroutines"
	WorkerPool Runtime = "worker-pool"
	Pinned     Runtime = "pinned"
)

// Defaults mirror the reference harness's tuning constants.
const (
	DefaultProducers         = 32
	DefaultConsumers         = 64
	DefaultConsumersPerThread = 8
)

// Config holds the harness's resolved configuration.
type Config struct {
	Runtime  Runtime
	Username string
	Password string
	Scheme   string
	Cluster  string
	Vhost    string
	Exchange string
	Queue    string

	Producers          int
	Consumers          int
	ConsumersPerThread int
}

// envOr returns os.Getenv(key) if it is set and non-empty, else def.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// Parse parses args (typically os.Args[1:]) into a Config. args[0], if it
// equals "tune", is treated as the tune subcommand and skipped. The
// --producers/--consumers/--consumers-per-thread flags are accepted with or
// without it; when absent they default to the harness's standard fleet
// size.
func Parse(args []string) (Config, error) {
	cfg := Config{
		Producers:          DefaultProducers,
		Consumers:          DefaultConsumers,
		ConsumersPerThread: DefaultConsumersPerThread,
	}

	rest := args
	if len(args) > 0 && args[0] == "tune" {
		rest = args[1:]
	}

	fs := flag.NewFlagSet("ampqctl", flag.ContinueOnError)
	runtime := fs.String("runtime", string(Goroutines), "goroutines|worker-pool|pinned")
	username := fs.String("username", envOr("AMQP_USERNAME", "guest"), "broker username")
	password := fs.String("password", envOr("AMQP_PASSWORD", "guest"), "broker password")
	scheme := fs.String("scheme", envOr("AMQP_SCHEME", "amqp"), "amqp|amqps")
	cluster := fs.String("cluster", envOr("AMQP_CLUSTER", "127.0.0.1:5672"), "host:port")
	vhost := fs.String("vhost", envOr("AMQP_VHOST", "/"), "virtual host")
	exchange := fs.String("exchange", "ampq", "exchange name")
	queue := fs.String("queue", "request", "queue name")
	fs.StringVar(runtime, "r", *runtime, "shorthand for --runtime")
	fs.StringVar(username, "u", *username, "shorthand for --username")
	fs.StringVar(password, "p", *password, "shorthand for --password")
	fs.StringVar(scheme, "s", *scheme, "shorthand for --scheme")
	fs.StringVar(cluster, "c", *cluster, "shorthand for --cluster")
	fs.StringVar(vhost, "v", *vhost, "shorthand for --vhost")
	fs.StringVar(exchange, "x", *exchange, "shorthand for --exchange")
	fs.StringVar(queue, "q", *queue, "shorthand for --queue")

	producers := fs.Int("producers", DefaultProducers, "number of producer goroutines")
	consumers := fs.Int("consumers", DefaultConsumers, "number of consumer goroutines")
	consumersPerThread := fs.Int("consumers-per-thread", DefaultConsumersPerThread, "consumers grouped per pinned OS thread")

	if err := fs.Parse(rest); err != nil {
		return Config{}, err
	}

	switch Runtime(*runtime) {
	case Goroutines, WorkerPool, Pinned:
	default:
		return Config{}, fmt.Errorf("cliconfig: unknown runtime %q", *runtime)
	}

	cfg.Runtime = Runtime(*runtime)
	cfg.Username = *username
	cfg.Password = *password
	cfg.Scheme = *scheme
	cfg.Cluster = *cluster
	cfg.Vhost = *vhost
	cfg.Exchange = *exchange
	cfg.Queue = *queue
	cfg.Producers = *producers
	cfg.Consumers = *consumers
	cfg.ConsumersPerThread = *consumersPerThread

	return cfg, nil
}

// URI assembles the AMQP connection URI from the resolved config:
// <scheme>://<user>:<password>@<host:port>/<vhost>.
func (c Config) URI() string {
	return fmt.Sprintf("%s://%s:%s@%s/%s", c.Scheme, c.Username, c.Password, c.Cluster, c.Vhost)
}
