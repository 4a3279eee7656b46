package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/cache"
	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage/backend"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/catalog"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/config"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&ingestStocksCmd{},
	&createAdminCmd{},
}

// env is the configuration and the backends a command runs against.
type env struct {
	cfg   *config.Config
	store port.Store
	// cache is nil when REDIS_URL is unset.
	cache  port.StockCache
	closer func()
}

// open loads the configuration, opens the migrated store and, when
// configured, the stock cache the API reads from.
func open(ctx context.Context) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, store: store, closer: store.Close}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			store.Close()
			return nil, err
		}
		e.cache = cache.NewRedisAdapter(client, cfg.StockCacheTTL)
		e.closer = func() {
			client.Close()
			store.Close()
		}
	}
	return e, nil
}

func (e *env) Close() { e.closer() }

func (e *env) service() *trading.Service {
	return trading.NewService(e.store, trading.Options{
		Cache:          e.cache,
		StorageTimeout: e.cfg.StorageTimeout,
	})
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the database schema" }
func (*migrateCmd) Usage() string {
	return `migrate

  Creates missing tables and indexes in DATABASE_URL. Safe to run repeatedly.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	fmt.Printf("Schema is up to date (%s)\n", e.cfg.DatabaseDriver)
	return subcommands.ExitSuccess
}

type ingestStocksCmd struct {
	file string
}

func (*ingestStocksCmd) Name() string     { return "ingest-stocks" }
func (*ingestStocksCmd) Synopsis() string { return "load the stock catalog" }
func (*ingestStocksCmd) Usage() string {
	return `ingest-stocks [-file <catalog.yaml>]

  Creates or updates every stock of the catalog. Without -file the built-in
  catalog is used. Running it twice leaves the same stocks in place.
`
}

func (c *ingestStocksCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "YAML catalog to load instead of the built-in one")
}

func (c *ingestStocksCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, err := c.entries()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading catalog: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	stocks, err := e.service().IngestCatalog(ctx, entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error ingesting stocks: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, st := range stocks {
		fmt.Printf("%-8s %10s  %s\n", st.Symbol, domain.FormatMoney(st.LastPrice), st.Name)
	}
	fmt.Printf("%d stocks in catalog\n", len(stocks))
	return subcommands.ExitSuccess
}

func (c *ingestStocksCmd) entries() ([]domain.CatalogEntry, error) {
	if c.file == "" {
		return catalog.Default()
	}
	f, err := os.Open(c.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.Parse(f)
}

type createAdminCmd struct {
	email    string
	name     string
	password string
}

func (*createAdminCmd) Name() string     { return "create-admin" }
func (*createAdminCmd) Synopsis() string { return "create an administrator account" }
func (*createAdminCmd) Usage() string {
	return `create-admin -email <email> -name <name> -password <password>

  Creates an account allowed to ingest the stock catalog over HTTP. Log in
  with the same credentials to obtain an API key.
`
}

func (c *createAdminCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Administrator email (required)")
	f.StringVar(&c.name, "name", "", "Administrator name (required)")
	f.StringVar(&c.password, "password", "", "Administrator password (required)")
}

func (c *createAdminCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.name == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -email, -name and -password are required.")
		return subcommands.ExitUsageError
	}

	e, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	acc, err := e.service().CreateAdmin(ctx, c.email, c.name, c.password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating admin: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Created admin %s (%s)\n", acc.Email, acc.ID)
	return subcommands.ExitSuccess
}
