// loxheap CLI - builds a sample heap, exercises the object model and
// writes or inspects heap snapshots.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/loxheap/config"
	"github.com/chazu/loxheap/snapshot"
	"github.com/chazu/loxheap/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("loxheap.cli")

func main() {
	configDir := flag.String("config", ".", "Directory to search (upwards) for loxheap.toml")
	verbose := flag.Bool("v", false, "Verbose output")
	stress := flag.Bool("stress", false, "Collect on every allocation")
	collect := flag.Bool("collect", false, "Run a collection after building the sample heap")
	output := flag.String("o", "", "Write a heap snapshot to this file")
	inspect := flag.String("inspect", "", "Print a summary of a snapshot file and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: loxheap [options]\n\n")
		fmt.Fprintf(os.Stderr, "Builds a sample heap, prints every value's textual form and\n")
		fmt.Fprintf(os.Stderr, "optionally writes a CBOR heap snapshot.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  loxheap -collect -o heap.snap   # Build, collect, snapshot\n")
		fmt.Fprintf(os.Stderr, "  loxheap -inspect heap.snap      # Summarize a snapshot\n")
	}
	flag.Parse()

	cfg, err := config.FindAndLoad(*configDir)
	if errors.Is(err, config.ErrNotFound) {
		cfg = config.Default()
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose && cfg.Log.Verbosity < 2 {
		cfg.Log.Verbosity = 2
	}
	cfg.Log.Configure()

	if *inspect != "" {
		if err := inspectSnapshot(*inspect); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	heapCfg := cfg.HeapConfig()
	if *stress {
		heapCfg.StressGC = true
	}
	h := vm.NewHeap(heapCfg)

	if err := runSample(h); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *collect {
		stats := h.Collect()
		fmt.Printf("Collected: freed %d objects, %d -> %d bytes\n",
			stats.Freed, stats.BytesBefore, stats.BytesAfter)
	}

	path := *output
	if path == "" && cfg.Dir != "" {
		path = cfg.SnapshotPath()
	}
	if path != "" {
		snap := snapshot.Capture(h)
		if err := snapshot.WriteFile(path, snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.Infof("wrote snapshot of %d objects to %s", len(snap.Objects), path)
		if *verbose {
			fmt.Printf("Wrote %d objects to %s\n", len(snap.Objects), path)
		}
	}
}

func inspectSnapshot(path string) error {
	snap, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%d objects, %d bytes allocated, next collection at %d, %d interned strings\n",
		len(snap.Objects), snap.BytesAllocated, snap.NextGC, snap.Interned)
	counts := snap.CountByType()
	for _, t := range snap.Types() {
		fmt.Printf("  %-14s %d\n", t, counts[t])
	}
	return nil
}
