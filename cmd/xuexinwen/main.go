package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Colmmm/xuexinwen/internal/config"
	"github.com/Colmmm/xuexinwen/internal/database"
	"github.com/Colmmm/xuexinwen/internal/dict"
	"github.com/Colmmm/xuexinwen/internal/fetch"
	"github.com/Colmmm/xuexinwen/internal/pipeline"
	"github.com/Colmmm/xuexinwen/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "xuexinwen",
	Short:   "Bilingual Mandarin news for language learners",
	Long:    "Xuexinwen fetches dual-language news articles, grades vocabulary against CEFR levels, generates simplified rewrites, and serves annotated text for learners.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// API keys live in .env during development.
		godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(wordCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("xuexinwen", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/xuexinwen/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set the dictionary path, target levels, and LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and dictionary status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Articles:")
		fmt.Printf("  Total: %d\n", stats.Articles)
		fmt.Printf("  Processed: %d\n", stats.Processed)
		fmt.Printf("  Pending: %d\n", stats.Unprocessed)
		fmt.Println("\nAnnotations:")
		fmt.Printf("  Entities: %d\n", stats.Entities)
		fmt.Printf("  Word levels: %d\n", stats.WordLevels)

		store, err := dict.LoadFile(cfg.Dictionary.Path)
		if err != nil {
			fmt.Printf("\nDictionary: unavailable (%v)\n", err)
			return nil
		}
		fmt.Printf("\nDictionary: %d words (%s)\n", store.Len(), cfg.Dictionary.Path)
		return nil
	},
}

// --- fetch command ---

var fetchSource string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch new dual-language articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fetcher := newFetcher()
		if len(fetcher.Names()) == 0 {
			return fmt.Errorf("no sources enabled in config")
		}
		articles, result, err := fetcher.Fetch(context.Background(), fetchSource)
		if err != nil {
			return err
		}

		stored, updated := 0, 0
		for _, a := range articles {
			exists, err := db.HasArticle(a.ID)
			if err != nil {
				log.Printf("Checking %s: %v", a.ID, err)
				continue
			}
			if err := db.UpsertArticle(a); err != nil {
				log.Printf("Storing %s: %v", a.ID, err)
				continue
			}
			if exists {
				updated++
			} else {
				stored++
			}
		}

		fmt.Println("\nFetch complete:")
		fmt.Printf("  Fetched: %d\n", result.Fetched)
		fmt.Printf("  Failed: %d\n", result.Failed)
		fmt.Printf("  New: %d\n", stored)
		fmt.Printf("  Updated: %d\n", updated)
		fmt.Println("\nRun 'xuexinwen process' to annotate them.")
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchSource, "source", "s", "nyt", "Article source to fetch from")
}

// --- process command ---

var processCmd = &cobra.Command{
	Use:   "process [article-id]",
	Short: "Run the annotation pipeline on unprocessed articles, or one article by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}
		ctx := context.Background()

		if len(args) == 1 {
			a, err := db.GetArticle(args[0])
			if err != nil {
				return fmt.Errorf("loading article %s: %w", args[0], err)
			}
			if _, err := pipe.ProcessArticle(ctx, a); err != nil {
				return err
			}
			fmt.Printf("Processed %s\n", a.ID)
			return nil
		}

		result, err := pipe.ProcessBatch(ctx)
		if err != nil {
			return err
		}
		fmt.Println("\nProcessing complete:")
		fmt.Printf("  Processed: %d\n", result.Processed)
		fmt.Printf("  Failed: %d\n", result.Failed)
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch new articles and process them in one go",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		fetcher := newFetcher()
		articles, fetchResult, err := fetcher.Fetch(ctx, fetchSource)
		if err != nil {
			return err
		}
		for _, a := range articles {
			if err := db.UpsertArticle(a); err != nil {
				log.Printf("Storing %s: %v", a.ID, err)
			}
		}
		fmt.Printf("Fetched %d articles (%d failed)\n", fetchResult.Fetched, fetchResult.Failed)

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}
		procResult, err := pipe.ProcessBatch(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Processed %d articles (%d failed)\n", procResult.Processed, procResult.Failed)
		fmt.Println("\nRun 'xuexinwen serve' to browse them.")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&fetchSource, "source", "s", "nyt", "Article source to fetch from")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			// Serve stored articles even when the dictionary or LLM is
			// unavailable; fetch/reprocess endpoints will return 503.
			log.Printf("Pipeline unavailable: %v", err)
			pipe = nil
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, newFetcher(), pipe, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (defaults to config)")
}

// --- word command ---

var wordCmd = &cobra.Command{
	Use:   "word [word]",
	Short: "Look up a word's CEFR level in the dictionary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := dict.LoadFile(cfg.Dictionary.Path)
		if err != nil {
			return fmt.Errorf("loading dictionary: %w", err)
		}

		level, canonical, ok := store.Lookup(args[0])
		if !ok {
			fmt.Printf("%s: not in dictionary\n", args[0])
			return nil
		}
		fmt.Printf("%s (%s): %s\n", args[0], canonical, level)
		return nil
	},
}

func newFetcher() *fetch.Fetcher {
	var sources []fetch.Source
	if cfg.Sources.NYT.Enabled {
		nyt := fetch.NewNYTSource(cfg.Sources.NYT.MaxArticles)
		if cfg.Sources.NYT.DelaySeconds > 0 {
			nyt.Delay = time.Duration(cfg.Sources.NYT.DelaySeconds) * time.Second
		}
		sources = append(sources, nyt)
	}
	return fetch.NewFetcher(sources...)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "xuexinwen.db")
	return database.Open(dbPath)
}
