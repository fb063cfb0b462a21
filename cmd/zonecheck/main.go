// Command zonecheck validates zone definition files before deployment.
// It accepts individual files or directories of <account>.json files
// and prints the active and rejected definitions for each.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/signalsfoundry/geofencer/core"
)

func main() {
	quiet := flag.Bool("q", false, "Only print rejected definitions")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: zonecheck [-q] <file-or-dir> ...")
		os.Exit(2)
	}

	bad := 0
	for _, arg := range flag.Args() {
		files, err := expand(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "zonecheck: %v\n", err)
			os.Exit(2)
		}
		for _, path := range files {
			if !checkFile(path, *quiet) {
				bad++
			}
		}
	}
	if bad > 0 {
		os.Exit(1)
	}
}

// expand turns a directory argument into its *.json members; files pass
// through unchanged.
func expand(arg string) ([]string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{arg}, nil
	}

	entries, err := os.ReadDir(arg)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(arg, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no .json files", arg)
	}
	return files, nil
}

// checkFile loads one zone file and reports its contents. It returns
// false when the file is unreadable, unparsable, or contains rejected
// definitions.
func checkFile(path string, quiet bool) bool {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return false
	}
	defer f.Close()

	active, rejected, err := core.LoadZoneSet(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return false
	}

	if !quiet {
		fmt.Printf("%s: %d active, %d rejected\n", path, len(active), len(rejected))
		for _, zone := range active {
			fmt.Printf("  ok   %-8s %s\n", zone.Kind(), zone.Name())
		}
	}
	for _, rej := range rejected {
		name := rej.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  FAIL %s: %v\n", name, rej.Reason)
	}
	return len(rejected) == 0
}
