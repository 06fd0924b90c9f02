package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"bookkeeper/internal/backend"
	"bookkeeper/internal/backup"
	"bookkeeper/internal/backup/gcs"
	"bookkeeper/internal/cli"
	"bookkeeper/internal/config"
	"bookkeeper/internal/export"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/services"
	gsheet "bookkeeper/internal/sheets/google"
	"bookkeeper/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export-csv":
		runExportCSV(logger)
	case "export-backup":
		runExportBackup(logger)
	case "import-backup":
		runImportBackup(logger)
	case "reset":
		runReset(logger)
	case "sync-sheets":
		runSyncSheets(logger)
	case "backup-remote":
		runBackupRemote(logger)
	case "restore-remote":
		runRestoreRemote(logger)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Bookkeeper CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  bookkeeper-cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  export-csv      Write the transaction table as CSV")
	fmt.Println("  export-backup   Write the whole document as a JSON backup")
	fmt.Println("  import-backup   Replace the document with a JSON backup")
	fmt.Println("  reset           Replace the document with the seed data")
	fmt.Println("  sync-sheets     Rewrite the Google Sheets mirror once")
	fmt.Println("  backup-remote   Upload a backup to the configured bucket")
	fmt.Println("  restore-remote  Replace the document with the newest remote backup")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nRun 'bookkeeper-cli <command> -h' for more information on a command.")
}

// openBook opens the configured store and the book service on top of it.
func openBook(ctx context.Context, logger *applog.Logger) (*config.Config, *backend.Result, *services.BookService) {
	cfg := cli.LoadAndValidateConfig(logger)
	store := cli.InitBackend(ctx, logger, cfg)
	book, err := services.Open(ctx, store.Store, services.Options{
		DocumentKey: cfg.DocumentKey,
		Logger:      logger,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to open book", err)
	}
	return cfg, store, book
}

func closeStore(logger *applog.Logger, store *backend.Result) {
	if err := store.Cleanup(); err != nil {
		logger.Error("Failed to close store", "error", err)
	}
}

// output returns the file named by path, or stdout when path is empty.
func output(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func runExportCSV(logger *applog.Logger) {
	fs := flag.NewFlagSet("export-csv", flag.ExitOnError)
	out := fs.String("out", "", "output file (default stdout)")
	bom := fs.Bool("bom", true, "prefix the UTF-8 byte order mark")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	_, store, book := openBook(ctx, logger)
	defer closeStore(logger, store)

	w, err := output(*out)
	if err != nil {
		cli.Fatal(logger, "Failed to open output", err, "path", *out)
	}
	defer w.Close()

	if *bom {
		if _, err := io.WriteString(w, "\ufeff"); err != nil {
			cli.Fatal(logger, "Failed to write CSV", err)
		}
	}
	if err := export.WriteCSV(w, book.Snapshot()); err != nil {
		cli.Fatal(logger, "Failed to write CSV", err)
	}
}

func runExportBackup(logger *applog.Logger) {
	fs := flag.NewFlagSet("export-backup", flag.ExitOnError)
	out := fs.String("out", "", "output file (default stdout)")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	_, store, book := openBook(ctx, logger)
	defer closeStore(logger, store)

	w, err := output(*out)
	if err != nil {
		cli.Fatal(logger, "Failed to open output", err, "path", *out)
	}
	defer w.Close()

	if err := export.WriteBackup(w, book.Snapshot()); err != nil {
		cli.Fatal(logger, "Failed to write backup", err)
	}
}

func runImportBackup(logger *applog.Logger) {
	fs := flag.NewFlagSet("import-backup", flag.ExitOnError)
	in := fs.String("file", "", "backup file to import")
	fs.Parse(os.Args[2:])

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		os.Exit(1)
	}
	f, err := os.Open(*in)
	if err != nil {
		cli.Fatal(logger, "Failed to open backup", err, "path", *in)
	}
	defer f.Close()

	ctx := context.Background()
	_, store, book := openBook(ctx, logger)
	defer closeStore(logger, store)

	if err := book.ImportBackup(ctx, f); err != nil {
		cli.Fatal(logger, "Import failed", err, "path", *in)
	}
	if err := book.LastSaveError(); err != nil {
		cli.Fatal(logger, "Imported document could not be saved", err)
	}
	fmt.Printf("Imported %d transactions from %s\n", len(book.Snapshot().Transactions), *in)
}

func runReset(logger *applog.Logger) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "confirm that all data should be replaced")
	fs.Parse(os.Args[2:])

	if !*confirm {
		fmt.Fprintln(os.Stderr, "Refusing to reset without -yes")
		os.Exit(1)
	}

	ctx := context.Background()
	_, store, book := openBook(ctx, logger)
	defer closeStore(logger, store)

	book.ResetToSeed(ctx)
	if err := book.LastSaveError(); err != nil {
		cli.Fatal(logger, "Reset could not be saved", err)
	}
	fmt.Println("Document reset to seed data.")
}

func runSyncSheets(logger *applog.Logger) {
	fs := flag.NewFlagSet("sync-sheets", flag.ExitOnError)
	timeout := fs.Duration("timeout", 2*time.Minute, "overall timeout")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.SheetsEnabled() {
		fmt.Fprintln(os.Stderr, "Error: GOOGLE_SPREADSHEET_ID is not set")
		os.Exit(1)
	}
	store := cli.InitBackend(ctx, logger, cfg)
	defer closeStore(logger, store)

	sheets, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}

	mirror := worker.NewMirrorWorker(store.Store, sheets, worker.MirrorConfig{PollInterval: cfg.MirrorPollInterval})
	if err := mirror.Sync(ctx); err != nil {
		cli.Fatal(logger, "Sheets sync failed", err)
	}
	fmt.Printf("Mirrored %d rows to spreadsheet %s\n", mirror.Status().Rows, cfg.GoogleSpreadsheetID)
}

func openBackups(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*gcs.Bucket, *backup.Service) {
	if !cfg.BackupEnabled() {
		fmt.Fprintln(os.Stderr, "Error: BACKUP_BUCKET is not set")
		os.Exit(1)
	}
	bucket, err := gcs.New(ctx, cfg.BackupBucket)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backup bucket", err, "bucket", cfg.BackupBucket)
	}
	return bucket, backup.NewService(bucket, cfg.BackupObjectPrefix)
}

func runBackupRemote(logger *applog.Logger) {
	fs := flag.NewFlagSet("backup-remote", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, store, book := openBook(ctx, logger)
	defer closeStore(logger, store)
	bucket, backups := openBackups(ctx, logger, cfg)
	defer bucket.Close()

	name, err := backups.Upload(ctx, book.Snapshot())
	if err != nil {
		cli.Fatal(logger, "Remote backup failed", err)
	}
	fmt.Printf("Uploaded %s\n", bucket.URI(name))
}

func runRestoreRemote(logger *applog.Logger) {
	fs := flag.NewFlagSet("restore-remote", flag.ExitOnError)
	object := fs.String("object", "", "backup object name (default newest)")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, store, book := openBook(ctx, logger)
	defer closeStore(logger, store)
	bucket, backups := openBackups(ctx, logger, cfg)
	defer bucket.Close()

	name := *object
	var err error
	if name == "" {
		name, err = backups.Latest(ctx)
		if err != nil {
			cli.Fatal(logger, "Failed to find latest backup", err)
		}
	}
	doc, err := backups.Download(ctx, name)
	if err != nil {
		cli.Fatal(logger, "Failed to download backup", err, "object", name)
	}
	book.Restore(ctx, doc)
	if err := book.LastSaveError(); err != nil {
		cli.Fatal(logger, "Restored document could not be saved", err)
	}
	fmt.Printf("Restored %d transactions from %s\n", len(doc.Transactions), bucket.URI(name))
}
