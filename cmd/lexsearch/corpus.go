package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/reload"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
)

func newStatsCmd(global *globalOptions) *cobra.Command {
	var topTerms int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Build the index and print corpus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}
			snapshot, err := loadSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			engine := indexer.NewEngine(snapshot, tokenizer.New(cfg.Search.MinTokenLength))
			stats := engine.Stats()

			printTable(cmd.OutOrStdout(), []string{"metric", "value"}, [][]string{
				{"documents", strconv.Itoa(stats.Documents)},
				{"sections", strconv.Itoa(stats.Sections)},
				{"terms", strconv.Itoa(stats.Terms)},
				{"postings", strconv.Itoa(stats.Postings)},
				{"index size", strconv.FormatInt(stats.SizeBytes, 10) + " bytes"},
				{"orphaned sections", strconv.Itoa(stats.OrphanedSections)},
				{"duplicate sections", strconv.Itoa(stats.DuplicateSections)},
				{"duplicate documents", strconv.Itoa(stats.DuplicateDocs)},
				{"build time", stats.BuildDuration.Round(time.Microsecond).String()},
				{"fingerprint", stats.Fingerprint},
			})
			if topTerms > 0 {
				rows := make([][]string, 0, topTerms)
				for _, tc := range engine.TopTerms(topTerms) {
					rows = append(rows, []string{tc.Term, strconv.Itoa(tc.Sections)})
				}
				fmt.Fprintln(cmd.OutOrStdout())
				printTable(cmd.OutOrStdout(), []string{"term", "sections"}, rows)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topTerms, "top-terms", 0, "Also list the N terms found in the most sections")
	return cmd
}

func newValidateCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the corpus for missing fields, duplicates and orphaned sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}
			snapshot, err := loadSnapshot(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var verr *corpus.ValidationError
			if err := corpus.Validate(snapshot); errors.As(err, &verr) {
				fields := make([]string, 0, len(verr.Fields))
				for field := range verr.Fields {
					fields = append(fields, field)
				}
				sort.Strings(fields)
				rows := make([][]string, 0, len(fields))
				for _, field := range fields {
					rows = append(rows, []string{field, verr.Fields[field]})
				}
				printTable(out, []string{"field", "problem"}, rows)
				return fmt.Errorf("corpus has %d problems", len(fields))
			}
			fmt.Fprintf(out, "corpus ok: %d documents, %d sections\n", len(snapshot.Documents), len(snapshot.Sections))
			return nil
		},
	}
}

func newImportCmd(global *globalOptions) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the PostgreSQL corpus with the contents of a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := global.load()
			if err != nil {
				return err
			}
			snapshot, err := corpus.FileLoader{Path: args[0]}.Load(ctx)
			if err != nil {
				return err
			}
			if err := corpus.Validate(snapshot); err != nil {
				return fmt.Errorf("refusing to import invalid corpus: %w", err)
			}

			store, err := global.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := store.Replace(ctx, snapshot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents, %d sections\n", len(snapshot.Documents), len(snapshot.Sections))

			if notify {
				return announce(cmd, global, cfg, "import", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "Announce the update on Kafka so running searchers reload")
	return cmd
}

func newNotifyCmd(global *globalOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "notify-reload",
		Short: "Ask every running searcher to reload the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}
			return announce(cmd, global, cfg, "cli", reason)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual", "Reason recorded on the event")
	return cmd
}

func announce(cmd *cobra.Command, global *globalOptions, cfg *config.Config, source, reason string) error {
	publisher := global.newPublisher(cfg)
	defer publisher.Close()
	if err := reload.NewNotifier(publisher).Notify(cmd.Context(), source, reason); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reload announced on %s\n", publisher.Topic())
	return nil
}
