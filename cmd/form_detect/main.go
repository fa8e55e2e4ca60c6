package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-guide/internal/assistant"
	"github.com/a3tai/mcp-form-guide/internal/guidance"
	"github.com/a3tai/mcp-form-guide/internal/llm"
)

// options holds the parsed command line.
type options struct {
	format   string
	language string
	guidance bool
	verbose  bool
	apiKey   string
	model    string
	help     bool
	path     string
}

// DetectionResult is the JSON document written by -format json.
type DetectionResult struct {
	FilePath      string               `json:"file_path"`
	Detection     assistant.Detection  `json:"detection"`
	Guidance      *assistant.FormGuide `json:"guidance,omitempty"`
	ElapsedMillis int64                `json:"elapsed_ms"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("form_detect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.StringVar(&opts.language, "language", string(guidance.DefaultLanguage), "Guidance language: english, nepali")
	fs.BoolVar(&opts.guidance, "guidance", false, "Resolve guidance for every detected field")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Log classification details to stderr")
	fs.StringVar(&opts.apiKey, "gemini-api-key", firstEnv("FORM_GUIDE_GEMINI_API_KEY", "GEMINI_API_KEY"), "Gemini API key (optional)")
	fs.StringVar(&opts.model, "gemini-model", llm.DefaultGeminiModel, "Gemini model name")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.help {
		return opts, nil
	}
	if fs.NArg() == 0 {
		return nil, fmt.Errorf("HTML file path required")
	}
	if opts.format != "text" && opts.format != "json" {
		return nil, fmt.Errorf("unsupported output format: %s", opts.format)
	}
	if _, ok := guidance.ParseLanguage(opts.language); !ok {
		return nil, fmt.Errorf("unsupported language: %s", opts.language)
	}
	opts.path = fs.Arg(0)
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return 2
	}
	if opts.help {
		printHelp(stdout)
		return 0
	}

	logger := zap.NewNop()
	if opts.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	defer func() { _ = logger.Sync() }()

	absPath, err := filepath.Abs(opts.path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	service := assistant.NewService(serviceOptions(ctx, opts, logger)...)
	language, _ := guidance.ParseLanguage(opts.language)

	start := time.Now()
	result := DetectionResult{FilePath: absPath}
	if opts.guidance {
		guide, err := service.GuideForm(ctx, string(data), language)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		result.Detection = guide.Detection
		result.Guidance = &guide
	} else {
		result.Detection = service.DetectForm(ctx, string(data))
	}
	result.ElapsedMillis = time.Since(start).Milliseconds()

	if opts.format == "json" {
		err = outputJSON(stdout, result)
	} else {
		err = outputText(stdout, result)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error writing results: %v\n", err)
		return 1
	}
	return 0
}

func serviceOptions(ctx context.Context, opts *options, logger *zap.Logger) []assistant.Option {
	serviceOpts := []assistant.Option{assistant.WithLogger(logger)}
	if opts.apiKey == "" {
		return serviceOpts
	}

	gen, err := llm.NewGeminiGenerator(ctx, opts.apiKey, opts.model)
	if err == nil {
		err = llm.Probe(ctx, gen)
	}
	if err != nil {
		logger.Warn("gemini unavailable, using fallback templates", zap.Error(err))
		return serviceOpts
	}
	return append(serviceOpts, assistant.WithGenerator(gen, opts.model))
}

func outputJSON(w io.Writer, result DetectionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(w io.Writer, result DetectionResult) error {
	d := result.Detection
	if !d.Detected {
		_, err := fmt.Fprintf(w, "No form detected in %s\n", result.FilePath)
		return err
	}

	fmt.Fprintf(w, "Form type: %s (%s / %s)\n", d.Category, d.DisplayName, d.NepaliName)
	fmt.Fprintf(w, "Decided by: %s\n", d.Stage)
	fmt.Fprintf(w, "Fields: %d\n\n", d.FieldCount)

	byField := map[string]guidance.Response{}
	if result.Guidance != nil {
		for _, fg := range result.Guidance.Fields {
			byField[fg.Field.Identifier] = fg.Guidance
		}
	}

	ids := make([]string, 0, len(d.Fields))
	for id := range d.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		field := d.Fields[id]
		fmt.Fprintf(w, "[%d] %s\n", i+1, id)
		fmt.Fprintf(w, "    Type: %s\n", field.Kind)
		if field.Label != "" {
			fmt.Fprintf(w, "    Label: %s\n", field.Label)
		}
		if g, ok := byField[id]; ok {
			fmt.Fprintf(w, "    Guidance (%s):\n      %s\n", g.Source, g.Text)
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintf(w, "Completed in %dms\n", result.ElapsedMillis)
	return err
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Form Detect - classify a saved government form page and list its fields")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  --format          Output format: text (default), json")
	fmt.Fprintln(w, "  --language        Guidance language: english (default), nepali")
	fmt.Fprintln(w, "  --guidance        Resolve guidance for every field")
	fmt.Fprintln(w, "  --gemini-api-key  Gemini API key; GEMINI_API_KEY is read when unset")
	fmt.Fprintln(w, "  --gemini-model    Gemini model name")
	fmt.Fprintln(w, "  -v, --verbose     Log classification details to stderr")
	fmt.Fprintln(w, "  -h, --help        Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  form_detect passport.html")
	fmt.Fprintln(w, "  form_detect --guidance --language nepali citizenship.html")
	fmt.Fprintln(w, "  form_detect --format json pages/pan.html")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  form_detect [OPTIONS] <file.html>")
}
