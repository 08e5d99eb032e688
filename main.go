package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/alecthomas/kong"
	"github.com/go-chi/chi/v5"

	"github.com/mterris/gutensearch/internal/clusterstate"
	"github.com/mterris/gutensearch/internal/config"
	"github.com/mterris/gutensearch/internal/datalake"
	"github.com/mterris/gutensearch/internal/gutenberg"
	"github.com/mterris/gutensearch/internal/httpapi"
	"github.com/mterris/gutensearch/internal/indexing"
	"github.com/mterris/gutensearch/internal/logging"
	"github.com/mterris/gutensearch/internal/metrics"
	"github.com/mterris/gutensearch/internal/queue"
	"github.com/mterris/gutensearch/internal/search"
)

// cli contains our command-line flags.
type cli struct {
	Serve   serve   `cmd:"" help:"Run the ingestor, indexer, and searcher services on this node."`
	Rebuild rebuild `cmd:"" help:"Force a full reindex from this node's local datalake."`
}

type logconfig struct {
	Verbose bool `help:"increase log verbosity"`
}

func (c *logconfig) apply() {
	logging.SetVerbose(c.Verbose)
}

// serve runs every service role on this node: each node acts as ingestor,
// indexer, and searcher at once, rather than splitting roles across
// separate processes.
type serve struct {
	logconfig

	Datalake    config.Datalake
	Gutenberg   config.Gutenberg
	Queue       config.Queue
	Cluster     config.Cluster
	Search      config.Search
	Replication config.Replication
	Server      config.Server
}

type validator interface{ Validate() error }

func (s *serve) validate() error {
	for _, v := range []validator{s.Datalake, s.Gutenberg, s.Queue, s.Cluster, s.Search, s.Replication} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *serve) Run() error {
	s.logconfig.apply()

	if err := s.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logging.Log(ctx)

	lake, cluster, ix, err := buildStack(ctx, s.Datalake, s.Cluster)
	if err != nil {
		return fmt.Errorf("building node: %w", err)
	}

	if err := ix.RecoverIfEmpty(ctx); err != nil {
		return fmt.Errorf("startup recovery: %w", err)
	}

	downloader := gutenberg.NewDownloader(s.Gutenberg.BaseURL, time.Duration(s.Gutenberg.DownloadTimeout)*time.Millisecond)
	searcher := search.New(cluster.Metadata, cluster.Postings, s.Search.MaxResults, s.Search.DefaultLimit)

	self := s.Cluster.CurrentNodeIP

	var replicator *datalake.Replicator
	var peers []string
	if s.Replication.Enabled {
		replicator = datalake.NewReplicator(self, s.Replication.Port, s.Replication.Endpoint, time.Duration(s.Replication.TimeoutMs)*time.Millisecond)
		peers = peerHosts(memberAddrs(s.Cluster))
	}

	producer, err := queue.Dial(s.Queue.BrokerURL, s.Queue.QueueName, self)
	if err != nil {
		return fmt.Errorf("connecting to message broker: %w", err)
	}
	defer func() { _ = producer.Close() }()

	consumer := queue.NewConsumer(s.Queue.BrokerURL, s.Queue.QueueName, ix)
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(consumerCtx); err != nil && consumerCtx.Err() == nil {
			log.Error("consumer loop exited", "err", err)
		}
	}()

	reg := metrics.New()

	r := chi.NewRouter()
	for _, mw := range httpapi.Chain() {
		r.Use(mw)
	}
	r.Use(reg.Middleware)

	r.Route("/internal", func(ir chi.Router) { cluster.Routes(ir) })
	httpapi.NewIngestor(downloader, lake, replicator, peers, producer).Routes(r)
	httpapi.NewIndexerAPI(ix, cluster.Metadata, cluster.Postings).Routes(r)
	httpapi.NewSearcherAPI(searcher).Routes(r)
	r.Handle("/metrics", reg.Handler())

	addr := fmt.Sprintf(":%d", s.Server.Port)
	srv := &http.Server{
		Handler:  r,
		Addr:     addr,
		ErrorLog: slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "self", self)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, draining")
	}

	log.Info("stopping message consumer")
	stopConsumer()
	<-consumerDone

	log.Info("stopping http server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	log.Info("leaving cluster membership")
	cluster.Close()

	log.Info("clean shutdown complete")
	return nil
}

// rebuild reindexes this node's entire local datalake from scratch, a
// one-off maintenance command run outside the HTTP surface.
type rebuild struct {
	logconfig

	Datalake config.Datalake
	Cluster  config.Cluster
}

func (b *rebuild) Run() error {
	b.logconfig.apply()

	if err := b.Datalake.Validate(); err != nil {
		return err
	}
	if err := b.Cluster.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	_, _, ix, err := buildStack(ctx, b.Datalake, b.Cluster)
	if err != nil {
		return err
	}

	n, err := ix.Rebuild(ctx)
	if err != nil {
		return err
	}
	logging.Log(ctx).Info("rebuild complete", "booksIndexed", n)
	return nil
}

// buildStack wires the datalake, cluster state, and indexer shared by both
// the serve and rebuild commands.
func buildStack(ctx context.Context, dlCfg config.Datalake, clCfg config.Cluster) (*datalake.Store, *clusterstate.Cluster, *indexing.Indexer, error) {
	placement := newPlacement(dlCfg)
	lake, err := datalake.New(dlCfg.Path, placement, dlCfg.TrackingFilename)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening datalake: %w", err)
	}

	pst, err := clusterstate.NewPostgresPersistence(ctx, clCfg.DSN())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting cluster state persistence: %w", err)
	}

	cluster, err := clusterstate.New(ctx, clusterstate.Config{
		Self:        fmt.Sprintf("%s:%d", clCfg.CurrentNodeIP, clCfg.NodePort),
		Members:     memberAddrs(clCfg),
		BackupCount: clCfg.BackupCount,
		ShardCount:  clCfg.ShardCount,
		RPCTimeout:  5 * time.Second,
	}, pst)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing cluster state: %w", err)
	}

	ix := indexing.New(lake, cluster.Metadata, cluster.Postings)
	return lake, cluster, ix, nil
}

func newPlacement(cfg config.Datalake) datalake.Placement {
	if cfg.Type == "timestamp" {
		return datalake.TimestampPlacement{}
	}
	return datalake.BucketPlacement{Size: cfg.BucketSize}
}

// memberAddrs returns the cluster's configured member list, including this
// node's own address if the operator omitted it.
func memberAddrs(cfg config.Cluster) []string {
	self := fmt.Sprintf("%s:%d", cfg.CurrentNodeIP, cfg.NodePort)
	members := cfg.MemberList()
	for _, m := range members {
		if m == self {
			return members
		}
	}
	return append(members, self)
}

// peerHosts strips the port from each cluster member address, since the
// replication receiver listens on its own configured port rather than the
// cluster RPC port.
func peerHosts(members []string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		host, _, err := net.SplitHostPort(m)
		if err != nil {
			host = m
		}
		out = append(out, host)
	}
	return out
}

func main() {
	kctx := kong.Parse(&cli{})
	err := kctx.Run()
	if err != nil {
		logging.Log(context.Background()).Error("fatal", "err", err)
		os.Exit(1)
	}
}

func init() {
	// Limit our memory to 90% of what's free. This affects cache sizes.
	_, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.9),
		memlimit.WithLogger(slog.Default()),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)
	if err != nil {
		panic(err)
	}
}
