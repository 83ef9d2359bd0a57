package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/how-als/how-als/internal/analysis"
	"github.com/how-als/how-als/internal/config"
	"github.com/how-als/how-als/internal/llm"
	"github.com/how-als/how-als/internal/storage"
)

// outcomeCapture keeps the last outcome for printing and forwards it to the
// journal when one is configured.
type outcomeCapture struct {
	last    analysis.Outcome
	journal *storage.Journal
}

func (c *outcomeCapture) RecordAnalysis(ctx context.Context, o analysis.Outcome) error {
	c.last = o
	if c.journal != nil {
		return c.journal.RecordAnalysis(ctx, o)
	}
	return nil
}

func main() {
	asJSON := flag.Bool("json", false, "print the result as JSON")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-json] <image-path>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY - Required\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_TRANSPORT, GEMINI_MODEL, JOURNAL_PATH - Optional\n")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	imagePath := flag.Arg(0)

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	config.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	payload, err := analysis.NewPayload(imageData, getMimeType(imagePath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", analysis.UserMessage(err))
		os.Exit(1)
	}

	ctx := context.Background()
	capture := &outcomeCapture{}
	if cfg.JournalPath != "" {
		journal, err := storage.NewJournal(cfg.JournalPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open journal: %v\n", err)
			os.Exit(1)
		}
		defer journal.Close()
		capture.journal = journal
	}

	var generator llm.Generator
	if analysis.CheckCredential(cfg.GeminiAPIKey) == nil {
		generator, err = llm.New(ctx, cfg.GeneratorOptions())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating model client: %v\n", err)
			os.Exit(1)
		}
	}

	analyzer := analysis.NewAnalyzer(cfg.GeminiAPIKey, generator,
		analysis.WithTimeout(cfg.AnalysisTimeout),
		analysis.WithRecorder(capture),
	)

	result, err := analyzer.Analyze(analysis.WithSource(ctx, "cli"), payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", analysis.UserMessage(err))
		os.Exit(1)
	}

	if *asJSON {
		if err := writeJSON(os.Stdout, result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write result: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printResult(result, capture.last)
}

func writeJSON(w io.Writer, result *analysis.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func printResult(result *analysis.Result, o analysis.Outcome) {
	fmt.Printf("Object:      %s\n", result.ObjectName)
	for i, u := range result.Usages {
		fmt.Printf("Usage %d:     %s\n", i+1, u.Title)
		fmt.Printf("             %s\n", u.Description)
	}
	fmt.Println()
	fmt.Printf("Status:      %s\n", o.Status)
	fmt.Printf("Model:       %s\n", o.Model)
	fmt.Printf("Duration:    %s\n", o.Duration.Round(time.Millisecond))
	fmt.Printf("Tokens:      %d in / %d out / %d total\n",
		o.Usage.InputTokens, o.Usage.OutputTokens, o.Usage.TotalTokens)
	fmt.Printf("Cost:        $%.6f\n", o.Usage.CostUSD)
}

// getMimeType guesses from the extension; unknown extensions are sniffed.
func getMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
