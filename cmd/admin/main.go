package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dictee/internal/cloud"
	"dictee/internal/config"
	"dictee/internal/database"
	"dictee/internal/logging"
	"dictee/internal/repository"
	"dictee/internal/security"
	"dictee/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	exportMDCmd := flag.NewFlagSet("export-md", flag.ExitOnError)
	importMDCmd := flag.NewFlagSet("import-md", flag.ExitOnError)
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	cloudCmd := flag.NewFlagSet("cloud", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	exportMDID := exportMDCmd.String("id", "", "Dictation ID (required)")
	exportMDOutput := exportMDCmd.String("output", "", "Output file path (default: <title>.md)")
	importMDInput := importMDCmd.String("input", "", "Markdown file path (required)")
	migrateURL := migrateCmd.String("url", "", "Old-format dictation URL (required)")
	cloudURLs := cloudCmd.String("urls", "", "Comma-separated public file URLs (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.Log.Format = "text"
	logging.New(cfg.Log)
	ctx := context.Background()

	// Commands that need no database
	switch os.Args[1] {
	case "token":
		fatalIf(handleToken(cfg))
		return
	case "hash-password":
		fatalIf(handleHashPassword())
		return
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		fatalIf(fmt.Errorf("failed to initialize database: %w", err))
	}
	defer db.Close()

	backupService := service.NewBackupService(db, cfg.Database.MaxDictations)
	dictationService := service.NewDictationService(
		repository.NewDictationRepository(db, cfg.Database.MaxDictations),
		cloud.NewFetcher(cloud.Config{
			Timeout:              cfg.Cloud.Timeout,
			MaxBytes:             cfg.Cloud.MaxBytes,
			BearerToken:          cfg.Cloud.BearerToken,
			TokenHosts:           cfg.Cloud.TokenHosts,
			AllowPrivateNetworks: cfg.Cloud.AllowPrivateNetworks,
		}),
	)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		err = handleExport(ctx, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		requireFlag(importCmd, "input", *importInput)
		err = handleImport(ctx, backupService, *importInput, *importClear)

	case "export-md":
		exportMDCmd.Parse(os.Args[2:])
		requireFlag(exportMDCmd, "id", *exportMDID)
		err = handleExportMarkdown(ctx, dictationService, *exportMDID, *exportMDOutput)

	case "import-md":
		importMDCmd.Parse(os.Args[2:])
		requireFlag(importMDCmd, "input", *importMDInput)
		err = handleImportMarkdown(ctx, dictationService, *importMDInput)

	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		requireFlag(migrateCmd, "url", *migrateURL)
		err = handleMigrate(ctx, dictationService, *migrateURL)

	case "cloud":
		cloudCmd.Parse(os.Args[2:])
		requireFlag(cloudCmd, "urls", *cloudURLs)
		err = handleCloud(ctx, service.NewShareService(dictationService, nil, cfg.Server.BaseURL), *cloudURLs)

	default:
		printUsage()
		os.Exit(1)
	}
	fatalIf(err)
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}
	if err := ensureDir(outputPath); err != nil {
		return err
	}

	slog.Info("exporting database", "path", outputPath)
	if err := backupService.Export(ctx, outputPath); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		slog.Info("export complete", "size_kb", info.Size()/1024)
	}
	return nil
}

func handleImport(ctx context.Context, backupService *service.BackupService, inputPath string, clearData bool) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file: %w", err)
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing dictations. Type 'yes' to confirm: ")
		confirmation, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(confirmation) != "yes" {
			slog.Info("import cancelled")
			return nil
		}
	}

	report, err := backupService.Import(ctx, inputPath, clearData)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	for _, skipped := range report.Skipped {
		slog.Warn("skipped", "entry", skipped)
	}
	slog.Info("import complete", "dictations", report.Dictations, "results", report.Results, "skipped", len(report.Skipped))
	return nil
}

func handleExportMarkdown(ctx context.Context, dictations *service.DictationService, id, outputPath string) error {
	filename, content, err := dictations.ExportMarkdown(ctx, id)
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = filename
	}
	if err := ensureDir(outputPath); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	slog.Info("dictation exported", "id", id, "path", outputPath)
	return nil
}

func handleImportMarkdown(ctx context.Context, dictations *service.DictationService, inputPath string) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	d, err := dictations.ImportMarkdown(ctx, string(content))
	if err != nil {
		return err
	}
	slog.Info("dictation imported", "id", d.ID, "title", d.Title, "units", d.UnitCount())
	return nil
}

func handleMigrate(ctx context.Context, dictations *service.DictationService, rawURL string) error {
	d, err := dictations.ImportLegacy(ctx, rawURL)
	if err != nil {
		return err
	}
	slog.Info("legacy dictation migrated", "id", d.ID, "title", d.Title, "language", d.Language, "units", d.UnitCount())
	return nil
}

func handleCloud(ctx context.Context, shares *service.ShareService, rawURLs string) error {
	var urls []string
	for _, u := range strings.Split(rawURLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	failed := 0
	for _, outcome := range shares.ImportCloudBatch(ctx, urls) {
		if outcome.Err() != nil {
			failed++
		}
		fmt.Println(outcome)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(urls))
	}
	return nil
}

func handleToken(cfg *config.Config) error {
	if len(cfg.Auth.JWTSecret) == 0 {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	token, expires, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue()
	if err != nil {
		return err
	}
	fmt.Println(token)
	slog.Info("token issued", "expires_at", expires.Format(time.RFC3339))
	return nil
}

func handleHashPassword() error {
	fmt.Print("Teacher password: ")
	password, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return fmt.Errorf("empty password")
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func requireFlag(fs *flag.FlagSet, name, value string) {
	if value == "" {
		fmt.Printf("Error: -%s flag is required\n", name)
		fs.PrintDefaults()
		os.Exit(1)
	}
}

func fatalIf(err error) {
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Dictée administration tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  admin export [-output file]          Export database to JSON file")
	fmt.Println("  admin import -input file [-clear]    Import database from JSON file")
	fmt.Println("  admin export-md -id ID [-output f]   Write one dictation as Markdown")
	fmt.Println("  admin import-md -input file          Store a Markdown dictation")
	fmt.Println("  admin migrate -url URL               Import an old-format dictation link")
	fmt.Println("  admin cloud -urls URL[,URL...]       Import Markdown files from cloud links")
	fmt.Println("  admin token                          Print a teacher token")
	fmt.Println("  admin hash-password                  Print a bcrypt hash for TEACHER_PASSWORD_HASH")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE         Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH         SQLite database path (default: ./dictee.db)")
	fmt.Println("  DATABASE_URL    PostgreSQL or MySQL connection URL")
	fmt.Println("  JWT_SECRET      Secret used by the token command")
}
