// Operator CLI for a running lixi server: inspect status, read or save the
// deck over the HTTP API, deposit envelopes, and browse archived deck edits.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"lixi.vn/internal/persistence/archive"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "status":
			statusCmd(os.Args[2:])
			return
		case "deck":
			deckCmd(os.Args[2:])
			return
		case "deposit":
			depositCmd(os.Args[2:])
			return
		case "archives":
			archivesCmd(os.Args[2:])
			return
		case "show":
			showCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin <status|deck|deposit|archives|show> [flags]")
	os.Exit(2)
}

func listArchiveDirs(dataDir string) ([]string, error) {
	base := filepath.Join(dataDir, "archives")
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func showArchived(dataDir, stamp string) error {
	path := filepath.Join(dataDir, "archives", stamp, "deck.json.zst")
	raw, err := archive.ReadArchived(path)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(raw)
	return err
}
