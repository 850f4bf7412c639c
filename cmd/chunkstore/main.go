package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/viant/chunkstore"
	"github.com/viant/chunkstore/config"
	"github.com/viant/chunkstore/embedding"
)

const usage = `Usage: chunkstore [-config config.yaml] <command> [args]

Commands:
  init                          create or verify the schema
  add file1 [file2 ...]         store every file as one chunk
  search [-k N] [-file P] text  print the nearest chunks
  verify                        compare chunks with the vector index
  reindex                       rebuild the vector index
  delete [-filepath P] [id ...] delete chunks by id or filepath
`

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "chunkstore.yaml", "Path to YAML config file (defaults apply when missing)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := run(context.Background(), cfg, args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "chunkstore: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()
	store, err := chunkstore.Open(ctx, cfg, provider, chunkstore.WithLogger(logger.Logger))
	if err != nil {
		return err
	}
	defer store.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		fmt.Fprintf(out, "schema ready (%s, dimension %d)\n", store.Kind(), store.Dimension())
		return nil
	case "add":
		return add(ctx, store, rest, out)
	case "search":
		return search(ctx, store, rest, out)
	case "verify":
		report, err := store.Verify(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, report.String())
		if !report.Consistent() {
			return errors.New("vector index is out of sync; run reindex")
		}
		return nil
	case "reindex":
		n, err := store.Reindex(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reindexed %d chunks\n", n)
		return nil
	case "delete":
		return remove(ctx, store, rest, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func add(ctx context.Context, store *chunkstore.Store, files []string, out io.Writer) error {
	if len(files) == 0 {
		return errors.New("add: at least one file is required")
	}
	entities := make([]chunkstore.Entity, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		entities = append(entities, chunkstore.Entity{
			Content:  string(data),
			Filepath: file,
			Metadata: map[string]interface{}{"size": len(data), "added_at": time.Now().UTC().Format(time.RFC3339)},
		})
	}
	if err := store.BulkInsertChunks(ctx, entities, 0); err != nil {
		return err
	}
	fmt.Fprintf(out, "added %d chunks\n", len(entities))
	return nil
}

func search(ctx context.Context, store *chunkstore.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	k := fs.Int("k", chunkstore.DefaultK, "number of results")
	file := fs.String("file", "", "restrict results to one filepath")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("search: query text is required")
	}
	var results []chunkstore.SearchResult
	var err error
	if *file != "" {
		results, err = store.SearchSimilarInFile(ctx, text, *file, *k)
	} else {
		results, err = store.SearchSimilar(ctx, text, *k)
	}
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(out, "%.4f\t%s\t%s\n", r.Distance, r.Filepath, preview(r.Content, 80))
	}
	return nil
}

func remove(ctx context.Context, store *chunkstore.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("filepath", "", "delete every chunk stored under this filepath")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var deleted int64
	if *path != "" {
		n, err := store.DeleteByFilepath(ctx, *path)
		if err != nil {
			return err
		}
		deleted += n
	}
	var ids []int64
	for _, arg := range fs.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("delete: invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	if *path == "" && len(ids) == 0 {
		return errors.New("delete: -filepath or ids are required")
	}
	n, err := store.DeleteChunks(ctx, ids...)
	if err != nil {
		return err
	}
	deleted += n
	fmt.Fprintf(out, "deleted %d chunks\n", deleted)
	return nil
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func newLogger(cfg *config.Config) (*chunkstore.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if cfg.Log.Format == "json" {
		return chunkstore.NewJSONLogger(os.Stderr, level), nil
	}
	return chunkstore.NewTextLogger(os.Stderr, level), nil
}

func newProvider(cfg *config.Config) (embedding.Provider, error) {
	dim := cfg.Embedder.Dimension
	if dim <= 0 {
		dim = cfg.EmbeddingDim
	}
	switch cfg.Embedder.Type {
	case config.EmbedderOpenAI:
		return embedding.NewHTTP(embedding.HTTPConfig{
			BaseURL:           cfg.Embedder.BaseURL,
			APIKeyEnv:         cfg.Embedder.APIKeyEnv,
			Model:             cfg.Embedder.Model,
			Dimension:         dim,
			Timeout:           time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
			RequestsPerSecond: cfg.Embedder.RequestsPerSecond,
		})
	case config.EmbedderHash, "":
		return embedding.NewHash(dim), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}
