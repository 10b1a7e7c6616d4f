package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/r2r"
	logpkg "github.com/kailas-cloud/r2r/internal/logger"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the service is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Response)
			return nil
		},
	}
}

func newAppSettingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "app-settings",
		Short: "Show the server's application settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := a.client.AppSettings(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
}

type searchFlags struct {
	limit   int
	hybrid  bool
	noVec   bool
	kg      bool
	filter  string
	jsonOut bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.limit, "limit", "k", r2r.DefaultSearchLimit, "number of results")
	cmd.Flags().BoolVar(&f.hybrid, "hybrid", false, "enable hybrid search")
	cmd.Flags().BoolVar(&f.noVec, "no-vector", false, "disable vector search")
	cmd.Flags().BoolVar(&f.kg, "kg", false, "enable knowledge-graph search")
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", `JSON metadata filter (e.g. '{"user_id":"u1"}')`)
}

func (f *searchFlags) options() (r2r.SearchOptions, error) {
	o := r2r.SearchOptions{
		Limit:       f.limit,
		Hybrid:      f.hybrid,
		UseKGSearch: f.kg,
	}
	if f.noVec {
		o.UseVectorSearch = r2r.Ptr(false)
	}
	if f.filter != "" {
		if err := json.Unmarshal([]byte(f.filter), &o.Filters); err != nil {
			return o, fmt.Errorf("invalid --filter: %w", err)
		}
	}
	return o, nil
}

func newSearchCmd(a *app) *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Vector and/or knowledge-graph search",
		Example: `  r2r search "who was aristotle?"
  r2r search -k 3 --filter '{"title":"aristotle.txt"}' "greek philosophy"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			res, err := a.client.Search(cmd.Context(), args[0], &opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f.jsonOut {
				return json.NewEncoder(out).Encode(res)
			}
			for _, hit := range res.Results.VectorSearchResults {
				fmt.Fprintf(out, "%.4f\t%s\t%s\n", hit.Score, hit.ID, oneLine(hit.Text()))
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVarP(&f.jsonOut, "json", "j", false, "print the raw response")
	return cmd
}

func newRAGCmd(a *app) *cobra.Command {
	var (
		sf          searchFlags
		stream      bool
		model       string
		temperature float64
		maxTokens   int
	)
	cmd := &cobra.Command{
		Use:   "rag QUERY",
		Short: "Answer a question with retrieval-augmented generation",
		Example: `  r2r rag "who was aristotle?"
  r2r rag --stream --model gpt-4o-mini "summarize the ingested documents"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			so, err := sf.options()
			if err != nil {
				return err
			}
			gen := r2r.GenerationConfig{Model: model, Stream: r2r.Ptr(stream)}
			if cmd.Flags().Changed("temperature") {
				gen.Temperature = r2r.Ptr(temperature)
			}
			if maxTokens > 0 {
				gen.MaxTokensToSample = r2r.Ptr(maxTokens)
			}

			res, err := a.client.RAG(cmd.Context(), args[0], &r2r.RAGOptions{SearchOptions: so, GenerationConfig: &gen})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Streaming() {
				if _, err := res.Stream.WriteTo(out); err != nil {
					return err
				}
				fmt.Fprintln(out)
				return nil
			}
			fmt.Fprintln(out, res.Response.Content())
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVarP(&stream, "stream", "s", false, "stream the answer as it is generated")
	cmd.Flags().StringVar(&model, "model", "", "completion model (server default if empty)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.1, "sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "maximum tokens to generate")
	return cmd
}

func newIngestCmd(a *app) *cobra.Command {
	var (
		metadata    string
		documentIDs []string
		userIDs     []string
		versions    []string
		generateIDs bool
	)
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Upload files for ingestion",
		Example: `  r2r ingest aristotle.txt
  r2r ingest --generate-ids --metadata '[{"title":"Aristotle"}]' aristotle.txt plato.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &r2r.IngestFilesOptions{
				DocumentIDs: documentIDs,
				UserIDs:     userIDs,
				Versions:    versions,
			}
			if generateIDs && len(documentIDs) == 0 {
				for _, path := range args {
					opts.DocumentIDs = append(opts.DocumentIDs, r2r.GenerateIDFromLabel(path))
				}
			}
			if metadata != "" {
				if err := json.Unmarshal([]byte(metadata), &opts.Metadatas); err != nil {
					return fmt.Errorf("invalid --metadata: %w", err)
				}
			}

			logpkg.FromContext(cmd.Context()).Info("ingesting files", zap.Strings("files", args))
			raw, err := a.client.IngestFiles(cmd.Context(), uploads(args), opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON array of metadata objects, one per file")
	cmd.Flags().StringSliceVar(&documentIDs, "document-id", nil, "document ID per file")
	cmd.Flags().StringSliceVar(&userIDs, "user-id", nil, "user ID per file")
	cmd.Flags().StringSliceVar(&versions, "version", nil, "version per file")
	cmd.Flags().BoolVar(&generateIDs, "generate-ids", false, "derive document IDs from the file paths")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		metadata    string
		documentIDs []string
	)
	cmd := &cobra.Command{
		Use:   "update FILE...",
		Short: "Replace existing documents with new file contents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := r2r.UpdateFilesOptions{DocumentIDs: documentIDs}
			if metadata != "" {
				if err := json.Unmarshal([]byte(metadata), &opts.Metadatas); err != nil {
					return fmt.Errorf("invalid --metadata: %w", err)
				}
			}
			raw, err := a.client.UpdateFiles(cmd.Context(), uploads(args), opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON array of metadata objects, one per file")
	cmd.Flags().StringSliceVar(&documentIDs, "document-id", nil, "document ID per file (required, same order)")
	_ = cmd.MarkFlagRequired("document-id")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:     "delete",
		Short:   "Delete documents matching key=value predicates",
		Example: `  r2r delete --where document_id=9fbe403b-c11c-5aae-8ade-ef22980c3ad1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, values, err := parsePredicates(where)
			if err != nil {
				return err
			}
			raw, err := a.client.Delete(cmd.Context(), keys, values)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "key=value predicate, repeatable")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}

func newLogsCmd(a *app) *cobra.Command {
	var opts r2r.LogsOptions
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := a.client.Logs(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().StringVar(&opts.LogTypeFilter, "type", "", "only runs of this log type")
	cmd.Flags().IntVar(&opts.MaxRuns, "max-runs", r2r.DefaultMaxRuns, "maximum runs to return")
	return cmd
}

func newDocumentsOverviewCmd(a *app) *cobra.Command {
	var documentIDs, userIDs []string
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Summarize stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := a.client.DocumentsOverview(cmd.Context(), documentIDs, userIDs)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().StringSliceVar(&documentIDs, "document-id", nil, "restrict to these documents")
	cmd.Flags().StringSliceVar(&userIDs, "user-id", nil, "restrict to these users")
	return cmd
}

func newUsersOverviewCmd(a *app) *cobra.Command {
	var userIDs []string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Summarize users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := a.client.UsersOverview(cmd.Context(), userIDs)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().StringSliceVar(&userIDs, "user-id", nil, "restrict to these users")
	return cmd
}

func newChunksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chunks DOCUMENT_ID",
		Short: "List the stored chunks of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.client.DocumentChunks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
}

func uploads(paths []string) []r2r.Upload {
	out := make([]r2r.Upload, 0, len(paths))
	for _, p := range paths {
		out = append(out, r2r.FileFromPath(p))
	}
	return out
}

var errBadPredicate = errors.New("predicate must be key=value")

func parsePredicates(where []string) ([]string, []any, error) {
	keys := make([]string, 0, len(where))
	values := make([]any, 0, len(where))
	for _, w := range where {
		k, v, ok := strings.Cut(w, "=")
		if !ok || k == "" {
			return nil, nil, fmt.Errorf("%q: %w", w, errBadPredicate)
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	return keys, values, nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, werr := fmt.Fprintln(w, string(raw))
		return werr
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func oneLine(s string) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) > 120 {
		return string(r[:117]) + "..."
	}
	return string(r)
}
