package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/config"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/application"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/bootstrap"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/domain"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/audio"
	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/infra/azure"
)

const usage = `D365 F&O Customer Management Tool

Usage:
  customers [-c config.yaml] [-e .env] [-v] <command> [flags]

Commands:
  retrieve   Retrieve customers (default)
  create     Create a customer
  voice      Run the voice pipeline against a local audio file

Examples:
  customers retrieve                     # Retrieve and display customers
  customers retrieve --cross-company     # Across all legal entities
  customers retrieve --max 50            # First 50 customers only
  customers create --account AK001 --name "Abdo Khoury" --group 80
  customers voice --audio note.ogg       # Full pipeline from a recording
  customers -v retrieve                  # Verbose logging

Global flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("customers", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	configPath := fs.StringP("config", "c", "config.yaml", "path to config file")
	envFile := fs.StringP("env", "e", ".env", "path to .env file")
	verbose := fs.BoolP("verbose", "v", false, "enable verbose/debug logging")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && (fs.Changed("env") || !errors.Is(err, os.ErrNotExist)) {
		return fmt.Errorf("loading env file: %w", err)
	}

	path := *configPath
	if !fs.Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	e := &env{
		cfg:    cfg,
		logger: bootstrap.NewLogger(cfg.Log, *verbose, stderr),
		stdout: stdout,
		stderr: stderr,
	}

	command, rest := "retrieve", fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	switch command {
	case "retrieve":
		return e.retrieve(ctx, rest)
	case "create":
		return e.create(ctx, rest)
	case "voice":
		return e.voice(ctx, rest)
	case "help":
		fs.Usage()
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (e *env) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (e *env) printHeader() {
	fmt.Fprintln(e.stdout, "\nD365 F&O Customer Management Tool")
	fmt.Fprintf(e.stdout, "   Environment: %s\n", e.cfg.D365.EnvironmentURL)
	fmt.Fprintf(e.stdout, "   Tenant:      %s\n\n", e.cfg.D365.TenantID)
}

func (e *env) connect(ctx context.Context) (*application.CustomerService, application.RecordStore, error) {
	if err := e.cfg.ValidateD365(); err != nil {
		return nil, nil, err
	}

	clients, err := bootstrap.NewClients(e.cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := bootstrap.NewCustomerService(e.cfg, clients, e.logger)

	e.printHeader()
	fmt.Fprintln(e.stdout, "Authenticating...")
	store, err := svc.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("authenticating: %w", err)
	}
	fmt.Fprintln(e.stdout, "Authenticated successfully.")

	return svc, store, nil
}

func (e *env) retrieve(ctx context.Context, args []string) error {
	fs := e.flagSet("retrieve")
	crossCompany := fs.Bool("cross-company", false, "retrieve across all legal entities")
	maxRecords := fs.Int("max", 0, "maximum number of records to retrieve (0 = all)")
	allColumns := fs.Bool("all-columns", false, "display all columns, not just key fields")
	dryRun := fs.Bool("dry-run", false, "authenticate only, don't retrieve data")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	start := time.Now()
	svc, store, err := e.connect(ctx)
	if err != nil {
		return err
	}

	if *dryRun {
		fmt.Fprintln(e.stdout, "Dry run complete - authentication successful. No data retrieved.")
		return nil
	}

	fmt.Fprintln(e.stdout, "Retrieving customers...")
	records, err := svc.List(ctx, store, application.ListOptions{
		CrossCompany: *crossCompany,
		MaxRecords:   *maxRecords,
		AllColumns:   *allColumns,
	})
	if err != nil {
		return err
	}

	displayCustomers(e.stdout, records, *allColumns)
	fmt.Fprintf(e.stdout, "Completed in %.1f seconds.\n", time.Since(start).Seconds())
	return nil
}

func (e *env) create(ctx context.Context, args []string) error {
	fs := e.flagSet("create")
	account := fs.String("account", "", "CustomerAccount (e.g. AK001)")
	name := fs.String("name", "", "OrganizationName (e.g. \"Abdo Khoury\")")
	group := fs.String("group", "", "CustomerGroupId (e.g. 80)")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	fields := domain.CustomerFields{
		Account: strings.TrimSpace(*account),
		Name:    strings.TrimSpace(*name),
		Group:   strings.TrimSpace(*group),
	}
	if missing := fields.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing required flags for: %s", strings.Join(missing, ", "))
	}

	start := time.Now()
	svc, store, err := e.connect(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Creating customer: Account=%s, Name=%s, Group=%s\n", fields.Account, fields.Name, fields.Group)
	created, err := svc.Create(ctx, store, fields)
	if err != nil {
		return err
	}

	displayCreated(e.stdout, created)
	fmt.Fprintf(e.stdout, "\nCompleted in %.1f seconds.\n", time.Since(start).Seconds())
	return nil
}

func (e *env) voice(ctx context.Context, args []string) error {
	fs := e.flagSet("voice")
	audioPath := fs.String("audio", "", "path to a voice note (.ogg, .opus, .wav, .mp3, .m4a, .webm)")
	from := fs.String("from", "cli", "sender recorded in logs and notifications")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if *audioPath == "" {
		return errors.New("--audio is required")
	}
	contentType, ok := audio.ContentType(*audioPath)
	if !ok {
		return fmt.Errorf("unsupported audio file %s", *audioPath)
	}

	if err := e.cfg.ValidatePipeline(); err != nil {
		return err
	}
	if e.cfg.Speech.Backend == "azure" {
		if _, ok := azure.RequestContentType(contentType); !ok {
			return fmt.Errorf("speech backend azure cannot decode %s: use .ogg/.opus or .wav", contentType)
		}
	}

	clients, err := bootstrap.NewClients(e.cfg)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(*audioPath)
	if err != nil {
		return fmt.Errorf("resolving audio path: %w", err)
	}
	fetcher := audio.NewFileFetcher(filepath.Dir(abs))

	pipeline, err := bootstrap.NewPipeline(e.cfg, clients, fetcher, e.logger)
	if err != nil {
		return err
	}

	out := pipeline.Handle(ctx, application.InboundMessage{
		From:             *from,
		NumMedia:         1,
		MediaURL:         fetcher.URL(abs),
		MediaContentType: contentType,
	})

	if out.Transcript != "" {
		fmt.Fprintf(e.stdout, "\nTranscript: %s\n", out.Transcript)
	}
	if out.Fields.Complete() {
		fmt.Fprintf(e.stdout, "Extracted:  Account=%s, Name=%s, Group=%s\n", out.Fields.Account, out.Fields.Name, out.Fields.Group)
	}
	fmt.Fprintf(e.stdout, "\nReply:\n%s\n", out.Reply)

	if out.State == application.StateFailed {
		return fmt.Errorf("pipeline failed at %s stage", out.FailedStage)
	}
	return nil
}
