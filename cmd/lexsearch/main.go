// Command lexsearch searches, inspects and maintains a legal corpus from
// the command line without running the HTTP service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/reload"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/postgres"
)

type globalOptions struct {
	configPath string
	corpusPath string
	logLevel   string

	openStore    func(ctx context.Context, cfg *config.Config) (corpusStore, error)
	newPublisher func(cfg *config.Config) announcer
}

// corpusStore is where import writes. Close releases the connection.
type corpusStore interface {
	EnsureSchema(ctx context.Context) error
	Replace(ctx context.Context, snap corpus.Snapshot) error
	Close() error
}

// announcer publishes corpus-update events. *kafka.Producer satisfies it.
type announcer interface {
	reload.Publisher
	Topic() string
	Close() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&globalOptions{
		openStore:    openPostgresStore,
		newPublisher: newKafkaAnnouncer,
	})
}

func newRootCmdWith(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lexsearch",
		Short:        "Full-text search over constitutions, statutes and other legal documents",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.corpusPath, "corpus", "", "Corpus file to read instead of the configured source")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newSearchCmd(opts),
		newStatsCmd(opts),
		newValidateCmd(opts),
		newImportCmd(opts),
		newNotifyCmd(opts),
	)
	return cmd
}

func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.corpusPath != "" {
		cfg.Corpus.Source = config.CorpusSourceFile
		cfg.Corpus.Path = o.corpusPath
	}
	return cfg, nil
}

// loadSnapshot reads the configured corpus with the service's retry and
// timeout policy.
func loadSnapshot(ctx context.Context, cfg *config.Config) (corpus.Snapshot, error) {
	var db *postgres.Client
	if cfg.Corpus.Source == config.CorpusSourcePostgres {
		var err error
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return corpus.Snapshot{}, fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
	}
	loader, err := corpus.NewLoader(cfg.Corpus, db)
	if err != nil {
		return corpus.Snapshot{}, err
	}
	return searcher.LoadSnapshot(ctx, loader, cfg.Corpus)
}

type postgresStore struct {
	*corpus.PostgresStore
	db *postgres.Client
}

func (s postgresStore) Close() error {
	return s.db.Close()
}

func openPostgresStore(ctx context.Context, cfg *config.Config) (corpusStore, error) {
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return postgresStore{PostgresStore: corpus.NewPostgresStore(db), db: db}, nil
}

func newKafkaAnnouncer(cfg *config.Config) announcer {
	return kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CorpusUpdates)
}

func printTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
