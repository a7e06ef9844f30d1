package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/filter"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
)

type searchOptions struct {
	limit       int
	authorities []string
	types       []string
	format      string
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the corpus",
		Long: `Search the corpus for sections matching any query term, ranked by
title and body matches and by how many of the terms each section contains.

Examples:
  lexsearch search "due process"
  lexsearch search liberty --authority state --limit 5
  lexsearch search "search and seizure" --type constitution,statute --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, global, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringSliceVarP(&opts.authorities, "authority", "a", nil, "Restrict to authority levels: federal, state, territory, local")
	cmd.Flags().StringSliceVarP(&opts.types, "type", "t", nil, "Restrict to document types, e.g. constitution, statute")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runSearch(cmd *cobra.Command, global *globalOptions, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return apperrors.Invalidf("unknown format %q", opts.format)
	}
	filters, err := buildFilters(opts.authorities, opts.types)
	if err != nil {
		return err
	}
	cfg, err := global.load()
	if err != nil {
		return err
	}
	snapshot, err := loadSnapshot(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	s := searcher.New(snapshot, cfg.Search)
	result := s.Search(query, filters, opts.limit)
	result.Query = query

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResults(cmd, result)
	return nil
}

func buildFilters(authorities, types []string) (filter.Filters, error) {
	var f filter.Filters
	for _, raw := range authorities {
		level, ok := corpus.ParseAuthorityLevel(raw)
		if !ok {
			return filter.Filters{}, apperrors.Invalidf("unknown authority level %q", raw)
		}
		f.AuthorityLevels = append(f.AuthorityLevels, level)
	}
	for _, raw := range types {
		if t := corpus.ParseDocumentType(raw); t != "" {
			f.DocumentTypes = append(f.DocumentTypes, t)
		}
	}
	return f, nil
}

func printResults(cmd *cobra.Command, result *executor.SearchResult) {
	out := cmd.OutOrStdout()
	if len(result.Results) == 0 {
		fmt.Fprintf(out, "No results for %q\n", result.Query)
		return
	}
	rows := make([][]string, 0, len(result.Results))
	for i, r := range result.Results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			r.Section.ID,
			string(r.Document.AuthorityLevel),
			r.Document.Title,
			r.Section.Title,
		})
	}
	printTable(out, []string{"rank", "score", "section", "authority", "document", "title"}, rows)
	fmt.Fprintf(out, "\n%d of %d matching sections\n", len(result.Results), result.TotalHits)
	for i, r := range result.Results {
		fmt.Fprintf(out, "\n[%d] %s\n    %s\n", i+1, r.Section.ID, r.MatchedText)
	}
}
