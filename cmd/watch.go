package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/compresr/truncation-engine/internal/engine"
	"github.com/compresr/truncation-engine/internal/simulation"
	"github.com/compresr/truncation-engine/internal/tui"
)

// demoText animates something sensible when no input is given.
const demoText = `The truncation engine compresses long documents to a bounded length. It keeps the first sentence of every paragraph as a proxy for that paragraph's main idea. Remaining budget goes to a lead prefix of the original text.

Semantic chunking takes a different route. Each sentence becomes a chunk with its own embedding vector. A representative summary is assembled from the first, middle, and last chunks.

Both pipelines can be replayed tick by tick. The animation walks through named phases until the real final output appears.`

// runWatch animates a truncation locally in the terminal.
func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	file := fs.String("file", "", "text file to truncate (demo text when omitted)")
	methodFlag := fs.String("method", string(simulation.MethodHierarchicalWindow), "hierarchical_window or semantic_chunk")
	maxLength := fs.Int("max-length", 200, "truncation budget in characters")
	window := fs.Int("window", 10, "sliding window size")
	speed := fs.Int("speed", 120, "tick interval in milliseconds")
	_ = fs.Parse(args)

	input := demoText
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", *file, err)
			os.Exit(1)
		}
		input = string(data)
	}

	method := simulation.Method(*methodFlag)
	if !method.Valid() {
		fmt.Fprintf(os.Stderr, "unknown method %q\n", *methodFlag)
		os.Exit(1)
	}

	// Local-only engine: no analyzer, no cache.
	eng := engine.New(engine.Config{MaxLength: *maxLength, WindowSize: *window}, nil, nil, nil, nil)

	analysis, err := eng.Analyze(context.Background(), engine.Request{
		Text:       input,
		MaxLength:  *maxLength,
		WindowSize: *window,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	frames := make(chan simulation.State, 256)
	ctrl, err := eng.NewSimulation(analysis, simulation.Config{
		SpeedMs:     *speed,
		SettleDelay: simulation.DefaultSettleDelay,
	}, func(st simulation.State) {
		select {
		case frames <- st:
		default:
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}

	program := tea.NewProgram(tui.New(ctrl, frames, method), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "viewer error: %v\n", err)
		os.Exit(1)
	}

	// Give a final stop a moment to settle timers before exit.
	ctrl.Stop()
	time.Sleep(10 * time.Millisecond)
}
