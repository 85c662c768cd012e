package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"paperchat/internal/arxiv"
	"paperchat/internal/chunker"
	"paperchat/internal/config"
	"paperchat/internal/domain"
	"paperchat/internal/extractor"
	"paperchat/internal/gemini"
	"paperchat/internal/pipeline"
	"paperchat/internal/tui"
	"paperchat/internal/vectorstore/memory"
	"paperchat/internal/vectorstore/qdrant"
	"paperchat/internal/vectorstore/sqlite"
)

var cfgPath string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "paperchat",
		Short: "Question answering over a local PDF corpus",
		Long:  "paperchat ingests research PDFs into a vector store and answers questions grounded in their content.",
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (default: ./paperchat.yaml, then ~/.config/paperchat/config.yaml)")

	rootCmd.AddCommand(createIngestCommand())
	rootCmd.AddCommand(createAskCommand())
	rootCmd.AddCommand(createChatCommand())
	rootCmd.AddCommand(createSourcesCommand())
	rootCmd.AddCommand(createPurgeCommand())
	rootCmd.AddCommand(createFetchCommand())
	rootCmd.AddCommand(createModelsCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() *config.AppConfig {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func openStore(cfg *config.AppConfig) domain.VectorStore {
	switch cfg.Store.Type {
	case "sqlite", "":
		st, err := sqlite.Open(cfg.Store.Dir, cfg.Store.Collection)
		if err != nil {
			log.Fatalf("open vector store: %v", err)
		}
		return st
	case "qdrant":
		if cfg.Store.Qdrant == nil {
			log.Fatalf("qdrant store config missing")
		}
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     cfg.Store.Qdrant.APIKey,
			Collection: cfg.Store.Collection,
			Timeout:    time.Duration(cfg.Store.Qdrant.TimeoutSecs) * time.Second,
		})
	case "memory":
		return memory.NewStore()
	default:
		log.Fatalf("unknown vector store: %s", cfg.Store.Type)
		return nil
	}
}

func newGemini(ctx context.Context, cfg *config.AppConfig) *gemini.Client {
	client, err := gemini.New(ctx, gemini.Config{
		APIKey:          cfg.APIKey(),
		EmbeddingModel:  cfg.Gemini.EmbeddingModel,
		GenerationModel: cfg.Gemini.GenerationModel,
	})
	if err != nil {
		log.Fatalf("gemini client init failed (is %s set?): %v", cfg.Gemini.APIKeyEnv, err)
	}
	return client
}

func newRetriever(cfg *config.AppConfig, client *gemini.Client, store domain.VectorStore) *pipeline.Retriever {
	return pipeline.NewRetriever(client, store, client, cfg.Retrieval.TopK, cfg.Retrieval.AnswerLanguage)
}

func createIngestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Ingest every PDF in a directory into the vector store",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			dir := cfg.PDFDir
			if len(args) == 1 {
				dir = args[0]
			}
			ctx := cmd.Context()
			client := newGemini(ctx, cfg)
			store := openStore(cfg)
			defer store.Close()

			ing := pipeline.NewIngestor(
				extractor.NewPDF(),
				chunker.NewSplitter(cfg.Chunker.ChunkSize, *cfg.Chunker.Overlap, nil),
				client,
				store,
			)
			ing.OnProgress(func(done, total int, file string) {
				printProgressBar("Ingesting", done, total, file)
			})

			report, err := ing.IngestDir(ctx, dir)
			fmt.Println()
			if err != nil {
				log.Fatalf("ingest failed: %v", err)
			}
			fmt.Printf("Ingested %d files, %d chunks\n", report.Files, report.Chunks)
			for _, fe := range report.Errors {
				fmt.Fprintf(os.Stderr, "failed: %s: %v\n", fe.File, fe.Err)
			}
			if len(report.Errors) > 0 {
				os.Exit(1)
			}
		},
	}
}

func createAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the grounded answer",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			ctx := cmd.Context()
			client := newGemini(ctx, cfg)
			store := openStore(cfg)
			defer store.Close()

			question := strings.Join(args, " ")
			answer, err := newRetriever(cfg, client, store).AnswerStream(ctx, question, func(fragment string) error {
				fmt.Print(fragment)
				return nil
			})
			if err != nil {
				var storeErr *domain.VectorStoreError
				if errors.As(err, &storeErr) {
					log.Fatalf("ask failed: %v (has anything been ingested yet?)", err)
				}
				log.Fatalf("ask failed: %v", err)
			}
			if answer == nil {
				fmt.Println("No relevant documents found. Run `paperchat ingest` first.")
				return
			}
			fmt.Printf("\n\n[Sources] %s\n", strings.Join(answer.Sources, ", "))
		},
	}
}

func createChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive chat session over the corpus",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			client := newGemini(cmd.Context(), cfg)
			store := openStore(cfg)
			defer store.Close()

			m := tui.New(newRetriever(cfg, client, store))
			if _, err := tea.NewProgram(m).Run(); err != nil {
				log.Fatal(err)
			}
		},
	}
}

func createSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List ingested documents and their chunk counts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := openStore(cfg)
			defer store.Close()

			metas, err := store.List(cmd.Context())
			if err != nil {
				log.Fatalf("list failed: %v", err)
			}
			counts := make(map[string]int)
			var order []string
			for _, meta := range metas {
				if counts[meta.Source] == 0 {
					order = append(order, meta.Source)
				}
				counts[meta.Source]++
			}
			if len(order) == 0 {
				fmt.Println("No documents ingested yet.")
				return
			}
			for _, source := range order {
				fmt.Printf("%s\t%d chunks\n", source, counts[source])
			}
		},
	}
}

func createPurgeCommand() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all chunks that came from one source file",
		Long:  "Delete every stored chunk for a source. Run before re-ingesting a file with different chunking settings, or stale chunks with higher indices stay behind.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := openStore(cfg)
			defer store.Close()

			n, err := store.PurgeSource(cmd.Context(), source)
			if err != nil {
				log.Fatalf("purge failed: %v", err)
			}
			fmt.Printf("Deleted %d chunks from %s\n", n, source)
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "Source filename as shown by `paperchat sources`")
	cmd.MarkFlagRequired("source")
	return cmd
}

func createFetchCommand() *cobra.Command {
	var maxResults int
	cmd := &cobra.Command{
		Use:   "fetch <query>",
		Short: "Download arXiv papers matching a query into the PDF directory",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if maxResults <= 0 {
				maxResults = cfg.Arxiv.MaxResults
			}
			ctx := cmd.Context()
			client := arxiv.NewClient(time.Duration(*cfg.Arxiv.DelaySecs * float64(time.Second)))

			query := strings.Join(args, " ")
			papers, err := client.Search(ctx, query, maxResults)
			if err != nil {
				log.Fatalf("arxiv search failed: %v", err)
			}
			if len(papers) == 0 {
				fmt.Println("No papers found.")
				return
			}
			fmt.Printf("Downloading %d papers to %s\n", len(papers), cfg.PDFDir)
			failed := 0
			err = client.DownloadAll(ctx, papers, cfg.PDFDir, func(p arxiv.Paper, err error) {
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "failed: %s: %v\n", p.Title, err)
					return
				}
				fmt.Printf("saved: %s\n", p.Filename())
			})
			if err != nil {
				log.Fatalf("download aborted: %v", err)
			}
			if failed > 0 {
				fmt.Fprintf(os.Stderr, "%d of %d downloads failed\n", failed, len(papers))
			}
		},
	}
	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "Maximum papers to download (default from config)")
	return cmd
}

func createModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available embedding and generation models",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			ctx := cmd.Context()
			client := newGemini(ctx, cfg)

			models, err := client.ListModels(ctx)
			if err != nil {
				log.Fatalf("list models failed: %v", err)
			}
			fmt.Println("Generation models:")
			for _, m := range models {
				if m.Generation {
					fmt.Printf("  %s\n", m.Name)
				}
			}
			fmt.Println("Embedding models:")
			for _, m := range models {
				if m.Embedding {
					fmt.Printf("  %s\n", m.Name)
				}
			}
		},
	}
}

func printProgressBar(prefix string, done, total int, file string) {
	if total == 0 {
		fmt.Printf("\r%s: no PDF files found", prefix)
		return
	}
	width := 40
	percentage := float64(done) / float64(total)
	filled := int(percentage * float64(width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	label := file
	if label == "" {
		label = "done"
	}
	fmt.Printf("\r%s: [%s] %d/%d %s\033[K", prefix, bar, done, total, label)
}
