// Package config declares the Kong flag structs for gutensearch's services,
// one struct per concern, embedded into the CLI commands.
package config

import (
	"fmt"
	"strings"

	"github.com/mterris/gutensearch/internal/errs"
)

// Datalake configures local book storage.
type Datalake struct {
	Path             string `default:"./datalake" help:"Root directory for the local datalake."`
	Type             string `default:"bucket" enum:"bucket,timestamp" help:"Placement policy: bucket or timestamp."`
	BucketSize       int64  `default:"1000" help:"Identifiers per bucket directory (bucket placement only)."`
	TrackingFilename string `default:"downloaded_books.txt" help:"Name of the per-node tracking file."`
}

func (d Datalake) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("datalake.path: %w", errs.ErrConfigMissing)
	}
	if d.Type != "bucket" && d.Type != "timestamp" {
		return fmt.Errorf("datalake.type %q: %w", d.Type, errs.ErrConfigInvalid)
	}
	if d.Type == "bucket" && d.BucketSize <= 0 {
		return fmt.Errorf("datalake.bucket.size must be positive: %w", errs.ErrConfigInvalid)
	}
	return nil
}

// Gutenberg configures the raw-text downloader.
type Gutenberg struct {
	BaseURL         string `default:"https://www.gutenberg.org" help:"Base URL for the Gutenberg mirror."`
	DownloadTimeout int    `default:"10000" help:"Download connect+read timeout, in milliseconds."`
}

func (g Gutenberg) Validate() error {
	if g.BaseURL == "" {
		return fmt.Errorf("gutenberg.base.url: %w", errs.ErrConfigMissing)
	}
	if g.DownloadTimeout <= 0 {
		return fmt.Errorf("gutenberg.download.timeout must be positive: %w", errs.ErrConfigInvalid)
	}
	return nil
}

// Queue configures the ActiveMQ/STOMP bridge.
type Queue struct {
	BrokerURL string `default:"tcp://localhost:61613" help:"STOMP broker URL."`
	QueueName string `default:"gutensearch.index.jobs" help:"Well-known queue name for indexing jobs."`
}

func (q Queue) Validate() error {
	if q.BrokerURL == "" {
		return fmt.Errorf("activemq.broker.url: %w", errs.ErrConfigMissing)
	}
	if q.QueueName == "" {
		return fmt.Errorf("activemq.queue.name: %w", errs.ErrConfigMissing)
	}
	return nil
}

// Cluster configures cluster membership, partitioning, and the Postgres
// durability layer backing the metadata map / inverted-index multimap.
// Static membership, no multicast.
type Cluster struct {
	Members           string `default:"" help:"Comma-separated list of cluster member addresses (host:port)."`
	CurrentNodeIP     string `required:"" help:"This node's routable address, advertised to peers."`
	NodePort          int    `default:"9701" help:"Port this node's internal cluster RPC listens on."`
	BackupCount       int    `default:"1" help:"Number of synchronous backup replicas per entry."`
	AsyncBackupCount  int    `default:"0" help:"Number of asynchronous backup replicas per entry."`
	MetadataMapName   string `default:"metadata" help:"Name of the distributed metadata map."`
	InvertedIndexName string `default:"invertedIndex" help:"Name of the distributed inverted-index multimap."`
	ShardCount        int    `default:"20" help:"Number of write-lock shards over the inverted index."`

	PostgresHost     string `default:"localhost" help:"Postgres host backing cluster state persistence."`
	PostgresUser     string `default:"postgres" help:"Postgres user."`
	PostgresPassword string `default:"" help:"Postgres password."`
	PostgresPort     int    `default:"5432" help:"Postgres port."`
	PostgresDatabase string `default:"gutensearch" help:"Postgres database."`
}

// MemberList splits Members into a deduplicated, order-preserving address list.
func (c Cluster) MemberList() []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range strings.Split(c.Members, ",") {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// DSN returns the Postgres connection string for cluster state persistence.
func (c Cluster) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDatabase)
}

func (c Cluster) Validate() error {
	if c.CurrentNodeIP == "" {
		return fmt.Errorf("cluster.current.node.ip: %w", errs.ErrConfigMissing)
	}
	if c.ShardCount <= 0 {
		return fmt.Errorf("index.shard.count must be positive: %w", errs.ErrConfigInvalid)
	}
	if c.BackupCount < 0 || c.AsyncBackupCount < 0 {
		return fmt.Errorf("backup.count/async.backup.count must be non-negative: %w", errs.ErrConfigInvalid)
	}
	return nil
}

// Search configures the searcher's ranking/pagination limits.
type Search struct {
	MaxResults    int `default:"100" help:"Hard cap on returned results."`
	DefaultLimit  int `default:"10" help:"Default result limit when the caller doesn't specify one."`
}

func (s Search) Validate() error {
	if s.MaxResults <= 0 {
		return fmt.Errorf("search.max.results must be positive: %w", errs.ErrConfigInvalid)
	}
	if s.DefaultLimit < 0 {
		return fmt.Errorf("search.default.limit must be non-negative: %w", errs.ErrConfigInvalid)
	}
	return nil
}

// Replication configures the peer-replication client.
type Replication struct {
	Enabled   bool   `default:"true" help:"Enable peer replication on ingest."`
	Port      int    `default:"8789" help:"Port the replication receiver listens on."`
	Endpoint  string `default:"/api/datalake/store" help:"Receiver endpoint path."`
	TimeoutMs int    `default:"5000" help:"Connect+read timeout for replication attempts, in milliseconds."`
}

func (r Replication) Validate() error {
	if r.TimeoutMs <= 0 {
		return fmt.Errorf("datalake.replication.timeout.ms must be positive: %w", errs.ErrConfigInvalid)
	}
	return nil
}

// Server configures the HTTP listener shared by the three service roles.
type Server struct {
	Port int `default:"8080" help:"HTTP listen port."`
}
