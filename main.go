package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/cloudflare/tableflip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/relayhttp/relay/conf"
	"github.com/relayhttp/relay/contrib/config"
	"github.com/relayhttp/relay/contrib/config/provider/file"
	"github.com/relayhttp/relay/contrib/kratos"
	"github.com/relayhttp/relay/contrib/log"
	"github.com/relayhttp/relay/contrib/transport"
	"github.com/relayhttp/relay/internal/adminserver"
	"github.com/relayhttp/relay/internal/blacklist"
	"github.com/relayhttp/relay/internal/filecache"
	"github.com/relayhttp/relay/internal/listener"
	"github.com/relayhttp/relay/internal/proxyconn"
	"github.com/relayhttp/relay/internal/resolver"
	"github.com/relayhttp/relay/internal/shutdown"
	"github.com/relayhttp/relay/metrics"
)

var (
	id, _ = os.Hostname()

	// flagConf is the optional YAML overlay path (spec.md §6 supplement).
	flagConf string
	// flagDebug sets the log level to DEBUG.
	flagDebug bool
	// flagHelp prints usage and exits 0.
	flagHelp bool

	// Version is set at build time via -ldflags.
	Version string = "no-set"
)

const usage = `relay [-h|--help] [-d|--debug] [-c config.yaml] <port> [<cache_timeout_secs>]

  -h, --help          print this message and exit
  -d, --debug         set log level to DEBUG
  -c config.yaml      optional YAML config overlay
  <port>              listen port, decimal integer >= 1 (required)
  <cache_timeout_secs> cache entry TTL in seconds, decimal integer >= 1 (default 60)
`

func init() {
	flag.BoolVar(&flagHelp, "h", false, "print usage and exit")
	flag.BoolVar(&flagHelp, "help", false, "print usage and exit")
	flag.BoolVar(&flagDebug, "d", false, "enable debug logging")
	flag.BoolVar(&flagDebug, "debug", false, "enable debug logging")
	flag.StringVar(&flagConf, "c", "", "optional YAML config overlay path")

	log.SetLogger(log.With(log.DefaultLogger, "ts", log.Timestamp(time.RFC3339), "pid", os.Getpid()))

	registerer := prometheus.WrapRegistererWithPrefix("relay_", prometheus.DefaultRegisterer)
	registerer.MustRegister(collectors.NewGoCollector(collectors.WithGoCollectorMemStatsMetricsDisabled()))
}

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flagHelp {
		fmt.Print(usage)
		os.Exit(0)
	}

	port, cacheTimeout, err := parsePositionalArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	bc := loadConfig(flagConf, port, cacheTimeout)

	if flagDebug {
		bc.Logger.Level = "debug"
	}
	log.SetLogger(log.With(buildLogger(bc.Logger), "ts", log.Timestamp(time.RFC3339), "pid", os.Getpid()))

	app, err := newApp(bc)
	if err != nil {
		log.Fatal(err)
	}

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}

// parsePositionalArgs implements spec.md §6's two positional
// arguments: a required port and an optional cache_timeout_secs
// defaulting to 60.
func parsePositionalArgs(args []string) (port, cacheTimeoutSecs int, err error) {
	if len(args) < 1 {
		return 0, 0, fmt.Errorf("missing required argument: <port>")
	}
	if len(args) > 2 {
		return 0, 0, fmt.Errorf("too many arguments")
	}

	if _, err := fmt.Sscanf(args[0], "%d", &port); err != nil || port < 1 {
		return 0, 0, fmt.Errorf("invalid port: %q", args[0])
	}

	cacheTimeoutSecs = 60
	if len(args) == 2 {
		if _, err := fmt.Sscanf(args[1], "%d", &cacheTimeoutSecs); err != nil || cacheTimeoutSecs < 1 {
			return 0, 0, fmt.Errorf("invalid cache_timeout_secs: %q", args[1])
		}
	}
	return port, cacheTimeoutSecs, nil
}

// loadConfig reads the optional YAML overlay, applies relay's
// defaults, and finally overrides it with the CLI-authoritative port
// and cache timeout via dario.cat/mergo (override mode, the same
// pattern the teacher used to merge global options over per-component
// config).
func loadConfig(path string, port, cacheTimeoutSecs int) *conf.Bootstrap {
	bc := defaultBootstrap()

	if path != "" {
		c := config.New[conf.Bootstrap](config.WithSource(file.NewSource(path)))
		defer c.Close()
		if err := c.Scan(bc); err != nil {
			log.Fatal(err)
		}
	}

	override := &conf.Bootstrap{Server: &conf.Server{
		Port:         port,
		CacheTimeout: time.Duration(cacheTimeoutSecs) * time.Second,
	}}
	if err := mergo.Merge(bc, override, mergo.WithOverride); err != nil {
		log.Fatal(err)
	}
	return bc
}

func defaultBootstrap() *conf.Bootstrap {
	return &conf.Bootstrap{
		Hostname: id,
		Logger:   &conf.Logger{Level: "info"},
		Server: &conf.Server{
			Port:             0,
			CacheTimeout:     60 * time.Second,
			KeepaliveTimeout: proxyconn.KeepaliveTimeout,
		},
		Cache: &conf.Cache{
			Root:        "./.cache",
			GCInterval:  time.Minute,
			BucketCount: 64,
		},
		Blacklist: &conf.Blacklist{Path: "./blacklist.txt"},
		Admin:     &conf.Admin{Addr: "127.0.0.1:9090"},
	}
}

func buildLogger(lc *conf.Logger) log.Logger {
	level := log.LevelInfo
	if lc.Level == "debug" {
		level = log.LevelDebug
	}
	return log.NewZapLogger(lc.Path, level, lc.MaxSize, lc.MaxBackups, lc.MaxAge, lc.Compress)
}

func newApp(bc *conf.Bootstrap) (*kratos.App, error) {
	stopTimeout := 30 * time.Second

	flip, err := tableflip.New(tableflip.Options{
		PIDFile:        bc.PidFile,
		UpgradeTimeout: stopTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("tableflip: %w", err)
	}

	res, err := resolver.New(64)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	cache, err := filecache.New(bc.Cache.Root, bc.Server.CacheTimeout, bc.Cache.BucketCount)
	if err != nil {
		return nil, fmt.Errorf("filecache: %w", err)
	}

	shutdownFlag := &shutdown.Flag{}
	bl := blacklist.Load(bc.Blacklist.Path)

	deps := proxyconn.Deps{
		Resolver:         res,
		Blacklist:        bl,
		Cache:            cache,
		Metrics:          metrics.NewRecorder(),
		Shutdown:         shutdownFlag,
		KeepaliveTimeout: bc.Server.KeepaliveTimeout,
	}

	addr := fmt.Sprintf(":%d", bc.Server.Port)
	servers := []transport.Server{
		listener.New(flip, addr, deps),
		&filecache.GCServer{Cache: cache, Shutdown: shutdownFlag, Interval: bc.Cache.GCInterval},
		adminserver.New(bc.Admin.Addr),
	}

	return kratos.New(
		kratos.ID(id),
		kratos.Name("relay"),
		kratos.Version(Version),
		kratos.StopTimeout(stopTimeout),
		kratos.Logger(log.GetLogger()),
		kratos.Server(servers...),
	), nil
}
