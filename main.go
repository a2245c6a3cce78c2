// lokcheck: audits per-language JSON locale files and fills missing strings
// with Gemini translations.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/minios-linux/lokcheck/audit"
	"github.com/minios-linux/lokcheck/config"
	"github.com/minios-linux/lokcheck/detect"
	"github.com/minios-linux/lokcheck/gemini"
	"github.com/minios-linux/lokcheck/i18n"
	"github.com/minios-linux/lokcheck/langmeta"
	"github.com/minios-linux/lokcheck/localefile"
	"github.com/minios-linux/lokcheck/lockfile"
	"github.com/minios-linux/lokcheck/report"
	"github.com/minios-linux/lokcheck/settings"
	"github.com/minios-linux/lokcheck/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// stderr is where log lines and progress go; stdout carries reports only.
var stderr io.Writer = color.Error

func logInfo(format string, args ...any) {
	fmt.Fprintf(stderr, blue("[INFO]")+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(stderr, green("[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(stderr, yellow("[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(stderr, red("[ERROR]")+" "+format+"\n", args...)
}

// errReported tells main that the failure was already printed.
var errReported = errors.New("error already reported")

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lokcheck",
		Short: i18n.T("Audit and translate JSON locale files"),
		Long: i18n.T(`lokcheck: audit and translate per-language JSON locale files.

Reads one <code>.json file per language from the locales directory
(default client/src/i18n/locales, configurable in .lokcheck.yaml).

Commands:
  audit       Report missing keys, untranslated and wrong-language values
  translate   Translate missing strings with Gemini and print them as JSON
  auth        Manage the stored Gemini API key`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))
	root.PersistentFlags().StringVar(&configPath, "config", "", i18n.T("Config file (default: <root>/.lokcheck.yaml)"))

	root.AddCommand(
		newAuditCmd(),
		newTranslateCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			logError("%v", err)
		}
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  i18n.T(`Display version, commit hash, and build date.`),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lokcheck version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
			fmt.Fprintf(out, "  catalogs:  %s\n", strings.Join(i18n.Languages(), ", "))
		},
	}
}

// ---------------------------------------------------------------------------
// audit (read-only static analysis)
// ---------------------------------------------------------------------------

func newAuditCmd() *cobra.Command {
	var a auditArgs

	cmd := &cobra.Command{
		Use:   "audit",
		Short: i18n.T("Report missing keys and suspicious translations"),
		Long: i18n.T(`Analyze every locale file and write a plain-text report.

The report lists keys missing per language, values identical to the
baseline, and values that look like the wrong language. It is saved to the
report path (default translation_analysis_report.txt) and printed to stdout.
Locale files are never modified.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.OutOrStdout(), a)
		},
	}

	cmd.Flags().StringVar(&a.localesDir, "locales", "", i18n.T("Locales directory (overrides config)"))
	cmd.Flags().StringVar(&a.reportPath, "report", "", i18n.T("Report file path (overrides config)"))

	return cmd
}

type auditArgs struct {
	localesDir, reportPath string
}

func runAudit(out io.Writer, a auditArgs) error {
	cfg, err := config.Load(rootDir, configPath)
	if err != nil {
		return err
	}

	dir := resolveLocalesDir(cfg, a.localesDir)
	res, err := audit.Run(dir, audit.Options{
		Detector: detect.New(cfg.DetectorConfig()),
		Policy:   cfg.AuditPolicy(),
		OnError: func(name string, err error) {
			logError(i18n.T("Error loading %s: %v"), name, err)
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("reading locales directory"), err)
	}

	var text bytes.Buffer
	if err := report.WriteAudit(&text, res, report.DefaultLayout()); err != nil {
		return err
	}

	reportPath := firstNonEmpty(a.reportPath, cfg.ReportPath)
	reportPath = config.Resolve(rootDir, reportPath)
	if err := os.WriteFile(reportPath, text.Bytes(), 0644); err != nil {
		return fmt.Errorf("%s: %w", i18n.T("writing report"), err)
	}

	if _, err := out.Write(text.Bytes()); err != nil {
		return err
	}
	logSuccess(i18n.T("Report saved to %s"), reportPath)

	warnStale(dir, cfg.Baseline, res.Languages)
	return nil
}

// warnStale logs the machine translations recorded in the lock file whose
// baseline text has changed since they were written.
func warnStale(dir, baseline string, langs []string) {
	lf, err := lockfile.Load(rootDir)
	if err != nil {
		logWarning("%v", err)
		return
	}
	if targets, _ := lf.Stats(); targets == 0 {
		return
	}

	base, _, err := localefile.Load(filepath.Join(dir, baseline+".json"), localefile.DescendArrays)
	if err != nil {
		return
	}
	texts := base.Entries.Strings()

	for _, lang := range langs {
		if lang == baseline {
			continue
		}
		target := lockfile.TargetKey(rootDir, filepath.Join(dir, lang+".json"))
		stale := lf.Stale(target, texts)
		if len(stale) == 0 {
			continue
		}
		logWarning(i18n.N("%s: %d machine translation is older than its baseline text: %s",
			"%s: %d machine translations are older than their baseline text: %s", len(stale)),
			lang, len(stale), strings.Join(stale, ", "))
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate",
		Short: i18n.T("Translate missing strings with Gemini"),
		Long: i18n.T(`Translate strings present in the baseline but missing from each target.

Prints a JSON object keyed by target file path with the new translations.
Strings whose request failed are reported as "TRANSLATION_ERROR: <text>".
With --write, successful translations are merged into the target files;
existing values are never overwritten.

The API key is taken from --api-key, then GEMINI_API_KEY, then the key
stored with 'lokcheck auth login'.

Examples:
  # Print translations for every configured language
  lokcheck translate

  # Translate Swedish and German only and patch the files
  lokcheck translate --lang sv,de --write

  # Send at most 50 strings per request
  lokcheck translate --chunk-size 50`),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.chunkSet = cmd.Flags().Changed("chunk-size")
			return runTranslate(cmd.Context(), cmd.OutOrStdout(), a)
		},
	}

	// Target selection
	cmd.Flags().StringVar(&a.langs, "lang", "", i18n.T("Languages to translate (comma-separated, default: all configured)"))
	cmd.Flags().StringVar(&a.localesDir, "locales", "", i18n.T("Locales directory (overrides config)"))

	// Translation behavior
	cmd.Flags().IntVar(&a.chunkSize, "chunk-size", 0, i18n.T("Strings per API request (0 = all at once)"))
	cmd.Flags().BoolVar(&a.write, "write", false, i18n.T("Merge translations into the target files"))

	// Provider
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", i18n.T("Gemini API key (or GEMINI_API_KEY env var)"))
	cmd.Flags().StringVar(&a.model, "model", "", i18n.T("Model name (default: gemini-2.5-flash)"))
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", i18n.T("Custom API base URL"))

	// Network
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, i18n.T("Request timeout (0 = 2m)"))
	cmd.Flags().StringVar(&a.proxy, "proxy", "", i18n.T("HTTP/HTTPS proxy URL"))

	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"}, cobra.ShellCompDirectiveNoFileComp
	})

	_ = cmd.RegisterFlagCompletionFunc("lang", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := config.Load(rootDir, configPath)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		localesDir, _ := cmd.Flags().GetString("locales")
		return langCompletions(cfg, resolveLocalesDir(cfg, localesDir)), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// langCompletions lists the configured languages followed by the other
// locale files found in dir, as "code\tname" completions.
func langCompletions(cfg *config.File, dir string) []string {
	seen := map[string]bool{cfg.Baseline: true}
	var completions []string
	for _, l := range cfg.Languages {
		seen[l.Code] = true
		completions = append(completions, fmt.Sprintf("%s\t%s", l.Code, l.Name))
	}
	for _, code := range config.DetectLanguages(dir) {
		if seen[code] {
			continue
		}
		seen[code] = true
		completions = append(completions, fmt.Sprintf("%s\t%s", code, langmeta.EnglishName(code)))
	}
	return completions
}

type translateArgs struct {
	langs, localesDir      string
	apiKey, model, baseURL string
	chunkSize              int
	chunkSet               bool
	write                  bool
	timeout                time.Duration
	proxy                  string
}

// runTranslate prints the JSON report to out. Startup failures are printed
// as {"error": ...} to out and returned as errReported.
func runTranslate(ctx context.Context, out io.Writer, a translateArgs) error {
	fail := func(msg string) error {
		_ = report.WriteError(out, msg)
		return errReported
	}

	cfg, err := config.Load(rootDir, configPath)
	if err != nil {
		return fail(err.Error())
	}

	apiKey, err := settings.RequireAPIKey(a.apiKey)
	if err != nil {
		return fail(err.Error())
	}

	baseURL := a.baseURL
	if baseURL == "" {
		if entry := settings.Get(settings.ProviderGemini); entry != nil {
			baseURL = entry.BaseURL
		}
	}

	client := gemini.New(gemini.Config{
		APIKey:  apiKey,
		Model:   firstNonEmpty(a.model, cfg.Model),
		BaseURL: firstNonEmpty(baseURL, cfg.BaseURL),
		Proxy:   a.proxy,
		Timeout: a.timeout,
	})

	chunkSize := cfg.ChunkSize
	if a.chunkSet {
		chunkSize = a.chunkSize
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	prog := &progress{}
	defer prog.finish()

	rep, err := translate.Run(ctx, client, translate.Options{
		LocalesDir: resolveLocalesDir(cfg, a.localesDir),
		Baseline:   cfg.Baseline,
		Languages:  cfg.TargetLanguages(parseLangList(a.langs)),
		ChunkSize:  chunkSize,
		Write:      a.write,
		OnProgress: prog.update,
		OnLog: func(format string, args ...any) {
			prog.clear()
			logInfo(format, args...)
		},
		OnError: func(format string, args ...any) {
			prog.clear()
			logError(format, args...)
		},
	})
	prog.finish()
	if err != nil {
		var be *translate.BaselineError
		if errors.As(err, &be) {
			return fail(fmt.Sprintf("Could not read or parse %s: %v", filepath.Base(be.Path), be.Err))
		}
		return fail(err.Error())
	}

	if err := report.WriteTranslations(out, rep.Output()); err != nil {
		return err
	}

	if ctx.Err() != nil {
		logWarning(i18n.T("Interrupted; remaining strings were reported as errors"))
	}
	if n := rep.BatchFailures(); n > 0 {
		logWarning(i18n.N("%d batch failed", "%d batches failed", n), n)
	}
	if a.write {
		if err := recordTranslations(rep); err != nil {
			logWarning("%v", err)
		}
	}
	if errs := rep.WriteErrors(); len(errs) > 0 {
		return fmt.Errorf(i18n.N("%d file could not be written", "%d files could not be written", len(errs)), len(errs))
	}
	return nil
}

// recordTranslations stores the baseline checksums of the strings written
// by rep in the lock file.
func recordTranslations(rep *translate.Report) error {
	lf, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}

	changed := false
	for _, f := range rep.Files {
		target := lockfile.TargetKey(rootDir, f.Path)
		if lf.Clean(target, rep.BaselineKeys) > 0 {
			changed = true
		}
		if f.Written == 0 {
			continue
		}
		written := make(map[string]string, len(f.Translations))
		for key, value := range f.Translations {
			if !translate.IsSentinel(value) {
				written[key] = f.Sources[key]
			}
		}
		lf.Record(target, written)
		changed = true
	}
	if !changed {
		return nil
	}
	return lf.Save()
}

// progress draws one progress bar per language on stderr.
type progress struct {
	bar  *progressbar.ProgressBar
	lang string
}

func (p *progress) update(lang string, done, total int) {
	if p.bar == nil || p.lang != lang {
		p.finish()
		p.lang = lang
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", lang)),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}
	_ = p.bar.Set(done)
}

// clear removes the bar from the terminal so a log line can be printed.
func (p *progress) clear() {
	if p.bar != nil {
		_ = p.bar.Clear()
	}
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// ---------------------------------------------------------------------------
// auth (manage the stored API key)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage the stored Gemini API key"),
		Long: i18n.T(`Manage the Gemini API key stored in the lokcheck data directory.

Get a key from https://aistudio.google.com/apikey. A key passed with
--api-key or set in GEMINI_API_KEY takes precedence over the stored one.

Examples:
  lokcheck auth login                  Store a Gemini API key
  lokcheck auth logout                 Remove all stored credentials
  lokcheck auth list                   Show stored credentials`),
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: i18n.T("Store a Gemini API key"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authLogin(cmd.InOrStdin(), baseURL)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", i18n.T("Custom API base URL to store with the key"))

	return cmd
}

func authLogin(in io.Reader, baseURL string) error {
	fmt.Fprintf(stderr, "\n%s\n", blue(i18n.T("Gemini API Key Setup")))
	fmt.Fprintln(stderr, strings.Repeat("─", 60))
	fmt.Fprintln(stderr)
	fmt.Fprintf(stderr, "  %s %s\n\n", i18n.T("Get your API key from:"), green("https://aistudio.google.com/apikey"))

	existing := settings.GetAPIKey(settings.ProviderGemini)
	if existing != "" {
		fmt.Fprintf(stderr, "  %s %s\n", i18n.T("Current key:"), yellow(settings.MaskKey(existing)))
		fmt.Fprint(stderr, "  "+i18n.T("Enter new key to replace, or press Enter to keep: "))
	} else {
		fmt.Fprint(stderr, "  "+i18n.T("Enter API key: "))
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return errors.New(i18n.T("No input received"))
	}
	key := strings.TrimSpace(scanner.Text())

	if key == "" {
		if existing != "" {
			logInfo(i18n.T("Keeping existing key"))
			return nil
		}
		return errors.New(i18n.T("No API key provided"))
	}

	info := &settings.Info{Type: "api", Key: key, BaseURL: baseURL}
	if err := settings.Set(settings.ProviderGemini, info); err != nil {
		return fmt.Errorf("%s: %w", i18n.T("saving API key"), err)
	}

	logSuccess(i18n.T("Gemini API key saved to %s"), settings.FilePath())
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: i18n.T("Remove stored credentials"),
		Long: i18n.T(`Remove stored credentials.

If --provider is not specified, all stored credentials are removed.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider != "" {
				if settings.Get(provider) == nil {
					logWarning(i18n.T("No credentials stored for %s"), provider)
					return nil
				}
				if err := settings.Remove(provider); err != nil {
					return err
				}
				logSuccess(i18n.T("%s credentials removed"), provider)
				return nil
			}
			if err := settings.RemoveAll(); err != nil {
				return err
			}
			logSuccess(i18n.T("All stored credentials removed"))
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", i18n.T("Provider to logout (default: all)"))
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return settings.Load().Providers(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("Show stored credentials and status"),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stderr, "\n%s\n", blue(i18n.T("Stored Credentials")))
			fmt.Fprintln(stderr, strings.Repeat("─", 60))
			fmt.Fprintf(stderr, "  %s\n\n", settings.FilePath())

			store := settings.Load()
			if len(store) == 0 {
				fmt.Fprintf(stderr, "  %-14s %s\n", settings.ProviderGemini, red(i18n.T("not configured")))
			}
			for _, id := range store.Providers() {
				entry := store[id]
				status := fmt.Sprintf("%s (%s %s)", green(i18n.T("configured")), i18n.T("key:"), settings.MaskKey(entry.Key))
				if entry.BaseURL != "" {
					status += fmt.Sprintf("\n  %14s endpoint: %s", "", entry.BaseURL)
				}
				fmt.Fprintf(stderr, "  %-14s %s\n", id, status)
			}

			fmt.Fprintf(stderr, "\n  %s\n", yellow(i18n.T("Environment Variables")))
			env := settings.EnvVarForProvider(settings.ProviderGemini)
			if v := os.Getenv(env); v != "" {
				fmt.Fprintf(stderr, "  %s: %s %s\n", env, green(settings.MaskKey(v)), i18n.T("(overrides stored key)"))
			} else {
				fmt.Fprintf(stderr, "  %s: %s\n", env, red(i18n.T("not set")))
			}
			fmt.Fprintln(stderr)
		},
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// resolveLocalesDir returns the --locales flag if given, else the
// configured directory, else a detected one.
func resolveLocalesDir(cfg *config.File, flag string) string {
	if flag != "" {
		return config.Resolve(rootDir, flag)
	}
	dir := config.Resolve(rootDir, cfg.LocalesDir)
	if dirExists(dir) {
		return dir
	}
	if found := config.DetectLocalesDir(rootDir, cfg.Baseline); found != "" {
		logInfo(i18n.T("Using detected locales directory %s"), found)
		return config.Resolve(rootDir, found)
	}
	return dir
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// parseLangList splits a comma-separated --lang value, dropping blanks and
// duplicates.
func parseLangList(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		code := strings.TrimSpace(part)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
