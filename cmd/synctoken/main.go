// Package main is a command-line front end for the incremental tokenizer:
// it loads a file, runs it to a tokenization fixed point, and prints it back
// with ANSI colors driven by the same highlight/linecache pipeline a real
// renderer would use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/synctoken/internal/engine/buffer"
	"github.com/dshills/synctoken/internal/event"
	"github.com/dshills/synctoken/internal/event/events"
	"github.com/dshills/synctoken/internal/renderer/core"
	"github.com/dshills/synctoken/internal/renderer/dirty"
	"github.com/dshills/synctoken/internal/renderer/highlight"
	"github.com/dshills/synctoken/internal/renderer/linecache"
	"github.com/dshills/synctoken/internal/syntax"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	ConfigPath string
	ThemeName  string
	Grammar    string
	File       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	text, err := os.ReadFile(opts.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", opts.File, err)
		return 1
	}

	syntaxOpts := syntax.Options{}
	if opts.ConfigPath != "" {
		syntaxOpts, err = syntax.OptionsFromTOML(opts.ConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to load config %s: %v\n", opts.ConfigPath, err)
			return 1
		}
	}

	bus := event.NewBus()
	if err := bus.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start event bus: %v\n", err)
		return 1
	}
	defer bus.Stop(context.Background())

	publisher := event.NewPublisher(bus, "synctoken")
	subscriber := event.NewSubscriber(bus)
	defer subscriber.Close()

	buf := buffer.NewBufferFromString(string(text))
	doc := syntax.NewDocumentBuffer(buf, opts.File)

	engine := syntax.NewTokenizationEngine(context.Background(), doc, publisher, syntaxOpts)
	engine.SetGrammar(grammarFor(opts.Grammar, opts.File))

	tracker := dirty.NewTracker(0, 0)
	if _, err := dirty.SubscribeSyntaxInvalidation(subscriber, tracker, doc.ID()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to subscribe to invalidation events: %v\n", err)
		return 1
	}

	if _, err := event.SubscribePayload(subscriber, events.TopicSyntaxTokenized, func(_ context.Context, _ events.SyntaxTokenized) error {
		return nil
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to subscribe to completion events: %v\n", err)
		return 1
	}

	theme, err := themeFor(opts.ThemeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	provider := highlight.NewProvider(engine, theme)

	cache := linecache.New(linecache.DefaultConfig())
	cache.SetDirtyTracker(tracker)
	cache.SetHighlightSource(provider)

	engine.SetVisible(true)
	waitForFixedPoint(engine)

	printHighlighted(doc, cache)
	return 0
}

// waitForFixedPoint polls the engine rather than blocking on did-tokenize:
// a file with zero lines never emits that event (there is nothing to
// tokenize), and this CLI always wants to print, not hang.
func waitForFixedPoint(engine *syntax.TokenizationEngine) {
	deadline := time.Now().Add(5 * time.Second)
	for !engine.IsFullyTokenized() {
		if time.Now().After(deadline) {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func printHighlighted(doc *syntax.DocumentBuffer, cache *linecache.Cache) {
	var b strings.Builder
	for row := uint32(0); row < doc.LineCount(); row++ {
		text := doc.LineForRow(row)
		cells := cache.GetStyledCells(row, text)
		for _, cell := range cells {
			if cell.IsContinuation() {
				continue
			}
			writeANSICell(&b, cell)
		}
		b.WriteString("\x1b[0m\n")
	}
	fmt.Print(b.String())
}

func writeANSICell(b *strings.Builder, cell core.Cell) {
	fg := cell.Style.Foreground
	if fg.IsDefault() {
		b.WriteString("\x1b[39m")
	} else if fg.Indexed {
		fmt.Fprintf(b, "\x1b[38;5;%dm", fg.R)
	} else {
		fmt.Fprintf(b, "\x1b[38;2;%d;%d;%dm", fg.R, fg.G, fg.B)
	}
	b.WriteRune(cell.Rune)
}

func grammarFor(name, file string) syntax.Grammar {
	switch name {
	case "go":
		return syntax.NewGoGrammar()
	case "none":
		return syntax.NewNullGrammar()
	case "":
		if filepath.Ext(file) == ".go" {
			return syntax.NewGoGrammar()
		}
		return syntax.NewNullGrammar()
	default:
		return syntax.NewNullGrammar()
	}
}

func themeFor(name string) (*highlight.Theme, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return highlight.DefaultTheme(), nil
	case "monokai":
		return highlight.MonokaiTheme(), nil
	case "dracula":
		return highlight.DraculaTheme(), nil
	case "solarized-dark":
		return highlight.SolarizedDarkTheme(), nil
	case "light":
		return highlight.LightTheme(), nil
	default:
		return nil, fmt.Errorf("unknown theme %q", name)
	}
}

func parseFlags() (options, error) {
	var opts options
	var showVersion, showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to a TOML settings file (syntax.tabLength, syntax.chunkSize, syntax.largeFileMode)")
	flag.StringVar(&opts.ThemeName, "theme", "default", "Theme name: default, monokai, dracula, solarized-dark, light")
	flag.StringVar(&opts.Grammar, "grammar", "", "Grammar to use: go, none (default: inferred from the file extension)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "synctoken - incremental syntax tokenizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: synctoken [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("synctoken %s (commit %s, built %s)\n", version, commit, date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("expected exactly one file argument, got %d", len(args))
	}
	opts.File = args[0]
	return opts, nil
}
