package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/kacebover/clutter-finder/gui/controller"
	"github.com/kacebover/clutter-finder/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printMainHelp(stdout)
		return 2
	}

	switch args[0] {
	case "scan":
		return runScanCommand(args[1:], stdout, stderr)
	case "gui":
		LaunchGUI(stdout)
		return 0
	case "help", "--help", "-h":
		printMainHelp(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "❌ Unknown command %q\n\n", args[0])
		printMainHelp(stderr)
		return 2
	}
}

func printMainHelp(w io.Writer) {
	fmt.Fprintln(w, "🧹 Clutter Finder - empty files, empty folders and similar images")
	fmt.Fprintln(w, "==================================================================")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  scan    Run one tool over a set of directories and print the results")
	fmt.Fprintln(w, "  gui     Show how to start the desktop application")
	fmt.Fprintln(w, "  help    Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  clutter-finder scan -tool <empty-files|empty-folders|similar-images> -dir <dir[,dir...]> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  clutter-finder scan -tool empty-folders -dir ~/Downloads")
	fmt.Fprintln(w, "  clutter-finder scan -tool similar-images -dir ~/Pictures -reference-dir ~/Pictures/Best -similarity 5")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'clutter-finder scan -h' for all options.")
}

// stringList is a comma separated flag value; setting it replaces the default
type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = splitList(v)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, expandHome(part))
	}
	return out
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// scanOptions holds the flags that do not map one to one onto settings fields
type scanOptions struct {
	tool       string
	hashSize   uint
	similarity float64
	noCache    bool
	verbose    bool
}

func newScanFlagSet(s *controller.Settings, opts *scanOptions, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.tool, "tool", "", "Tool to run: empty-files, empty-folders or similar-images (required)")
	fs.Var((*stringList)(&s.IncludedDirectories), "dir", "Comma separated directories to search (required)")
	fs.Var((*stringList)(&s.ExcludedDirectories), "exclude-dir", "Comma separated directories to skip")
	fs.Var((*stringList)(&s.ReferencedDirectories), "reference-dir", "Comma separated reference directories (similar images)")
	fs.StringVar(&s.ExcludedItems, "excluded-items", s.ExcludedItems, "Comma separated wildcard patterns to skip")
	fs.StringVar(&s.AllowedExtensions, "allowed-ext", s.AllowedExtensions, "Only look at these extensions, e.g. jpg,png")
	fs.StringVar(&s.ExcludedExtensions, "excluded-ext", s.ExcludedExtensions, "Never look at these extensions")
	fs.Int64Var(&s.MinimumFileSizeKB, "min-size", s.MinimumFileSizeKB, "Minimum file size in KiB (similar images)")
	fs.Int64Var(&s.MaximumFileSizeKB, "max-size", s.MaximumFileSizeKB, "Maximum file size in KiB (similar images)")
	fs.BoolVar(&s.RecursiveSearch, "recursive", s.RecursiveSearch, "Descend into subdirectories")
	fs.BoolVar(&s.IgnoreOtherFileSystems, "one-filesystem", s.IgnoreOtherFileSystems, "Do not cross filesystem boundaries")
	fs.IntVar(&s.ThreadNumber, "threads", s.ThreadNumber, "Number of images hashed in parallel")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Do not read or write the image hash cache")
	fs.StringVar(&s.CachePath, "cache-path", s.CachePath, "Location of the image hash cache database")
	fs.BoolVar(&s.SaveAlsoAsJSON, "json-cache", s.SaveAlsoAsJSON, "Also write the hash cache as JSON")

	fs.UintVar(&opts.hashSize, "hash-size", uint(s.SimilarImagesHashSize), "Hash size: 8, 16, 32 or 64")
	fs.StringVar(&s.SimilarImagesHashType, "hash-type", s.SimilarImagesHashType, "Hash type: "+settingNames(hashTypeNames()))
	fs.StringVar(&s.SimilarImagesResizeAlgorithm, "resize", s.SimilarImagesResizeAlgorithm, "Resize filter: "+settingNames(resizeNames()))
	fs.Float64Var(&opts.similarity, "similarity", float64(s.SimilarImagesSimilarity), "Maximum hash distance between similar images")
	fs.BoolVar(&s.SimilarImagesIgnoreSameSize, "ignore-same-size", s.SimilarImagesIgnoreSameSize, "Keep only one image per file size")

	fs.StringVar(&s.Logging.Level, "log-level", "warn", "Log level: debug, info, warn, error")
	fs.StringVar(&s.Logging.Format, "log-format", s.Logging.Format, "Log format: text or json")
	fs.StringVar(&s.Logging.FilePath, "log-file", "", "Also write logs to this rotating file")
	fs.BoolVar(&opts.verbose, "verbose", false, "Print progress to stderr")

	return fs
}

func hashTypeNames() []string {
	names := make([]string, 0, len(controller.AllowedHashTypeValues))
	for _, ht := range controller.AllowedHashTypeValues {
		names = append(names, ht.SettingName)
	}
	return names
}

func resizeNames() []string {
	names := make([]string, 0, len(controller.AllowedResizeAlgorithmValues))
	for _, alg := range controller.AllowedResizeAlgorithmValues {
		names = append(names, alg.SettingName)
	}
	return names
}

func settingNames(names []string) string {
	return strings.Join(names, ", ")
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// parseScanArgs turns the scan flags into the tool to run and its settings
func parseScanArgs(args []string, stderr io.Writer) (controller.CurrentTab, *controller.Settings, scanOptions, error) {
	s := controller.DefaultSettings()
	s.IncludedDirectories = nil
	s.MinimumFileSizeKB = 0
	var opts scanOptions

	fs := newScanFlagSet(s, &opts, stderr)
	if err := fs.Parse(args); err != nil {
		return 0, nil, opts, err
	}
	if fs.NArg() > 0 {
		s.IncludedDirectories = append(s.IncludedDirectories, splitList(strings.Join(fs.Args(), ","))...)
	}

	kind, err := controller.ParseTab(opts.tool)
	if err != nil {
		return 0, nil, opts, err
	}
	if len(s.IncludedDirectories) == 0 {
		return 0, nil, opts, errors.New("at least one directory is required (-dir)")
	}
	for _, dir := range s.IncludedDirectories {
		info, err := os.Stat(dir)
		if err != nil {
			return 0, nil, opts, fmt.Errorf("directory does not exist: %s", dir)
		}
		if !info.IsDir() {
			return 0, nil, opts, fmt.Errorf("not a directory: %s", dir)
		}
	}

	switch opts.hashSize {
	case 8, 16, 32, 64:
		s.SimilarImagesHashSize = uint8(opts.hashSize)
	default:
		return 0, nil, opts, fmt.Errorf("invalid hash size %d (expected 8, 16, 32 or 64)", opts.hashSize)
	}
	if !contains(hashTypeNames(), s.SimilarImagesHashType) {
		return 0, nil, opts, fmt.Errorf("invalid hash type %q (expected %s)", s.SimilarImagesHashType, settingNames(hashTypeNames()))
	}
	if !contains(resizeNames(), s.SimilarImagesResizeAlgorithm) {
		return 0, nil, opts, fmt.Errorf("invalid resize filter %q (expected %s)", s.SimilarImagesResizeAlgorithm, settingNames(resizeNames()))
	}
	if !logging.ValidLevel(s.Logging.Level) {
		return 0, nil, opts, fmt.Errorf("invalid log level %q", s.Logging.Level)
	}

	s.SimilarImagesSimilarity = float32(opts.similarity)
	s.UseCache = !opts.noCache
	if err := s.Validate(); err != nil {
		return 0, nil, opts, err
	}

	return kind, s, opts, nil
}

func runScanCommand(args []string, stdout, stderr io.Writer) int {
	kind, settings, opts, err := parseScanArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return 2
	}

	logger, closer := logging.New(settings.Logging)
	if closer != nil {
		defer closer.Close()
	}

	loop := controller.NewQueueLoop(logger)
	ctrl := controller.NewScanController(loop, settings, logger)

	if opts.verbose {
		ctrl.SetOnProgress(func(p controller.ProgressToSend) {
			printProgress(stderr, p)
		})
	}
	ctrl.SetOnResults(func(kind controller.CurrentTab, rows []controller.DisplayRow) {
		if opts.verbose {
			fmt.Fprintln(stderr)
		}
		printRows(stdout, kind, rows)
	})
	ctrl.SetOnScanEnded(func(_ controller.CurrentTab, summary string) {
		fmt.Fprintf(stdout, "\n%s\n", summary)
	})
	ctrl.SetOnInfoText(func(_ controller.CurrentTab, text string) {
		if opts.verbose && text != "" {
			fmt.Fprintf(stderr, "\n%s", text)
		}
		loop.Stop()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		ctrl.StopScan()
	}()

	ctrl.StartScan(kind)
	loop.Run()
	return 0
}

func printProgress(w io.Writer, p controller.ProgressToSend) {
	if p.StepName == "" {
		return
	}
	if p.CurrentProgress < 0 {
		fmt.Fprintf(w, "\r🔄 [%3d%%] %s...          ", p.AllProgress, p.StepName)
		return
	}
	fmt.Fprintf(w, "\r🔄 [%3d%%] %s %d%%          ", p.AllProgress, p.StepName, p.CurrentProgress)
}

// printRows writes result rows as aligned columns; groups are separated by their header rows
func printRows(w io.Writer, kind controller.CurrentTab, rows []controller.DisplayRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch kind {
	case controller.TabSimilarImages:
		group := 0
		for _, row := range rows {
			if row.HeaderRow {
				group++
				fmt.Fprintf(tw, "\n== Group %d ==\t\t\t\t\n", group)
				if len(row.ValStr) == 0 {
					continue
				}
			}
			// similarity, size, dimensions, path, date
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				row.ValStr[0], row.ValStr[1], row.ValStr[2],
				filepath.Join(row.ValStr[4], row.ValStr[3]), row.ValStr[5])
		}
	default:
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%s\n", filepath.Join(row.ValStr[1], row.ValStr[0]), row.ValStr[2])
		}
	}
}
