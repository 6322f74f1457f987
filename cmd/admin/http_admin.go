package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"
)

func baseFlag(fs *flag.FlagSet) *string {
	return fs.String("url", "http://127.0.0.1:8080", "server base url")
}

func apiURL(base, path string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/") + path
}

func printBody(resp *http.Response) {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func statusCmd(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	baseURL := baseFlag(fs)
	_ = fs.Parse(args)

	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(apiURL(*baseURL, "/api/admin/status"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	printBody(resp)
}

// loggedInClient performs the admin login and returns a client carrying the
// session cookie.
func loggedInClient(baseURL, password string) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	cl := &http.Client{Timeout: 5 * time.Second, Jar: jar}

	body, _ := json.Marshal(map[string]string{"password": password})
	resp, err := cl.Post(apiURL(baseURL, "/api/admin/login"), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login: %s", strings.TrimSpace(string(b)))
	}
	return cl, nil
}

func deckCmd(args []string) {
	fs := flag.NewFlagSet("deck", flag.ExitOnError)
	baseURL := baseFlag(fs)
	password := fs.String("password", os.Getenv("LIXI_ADMIN_PASSWORD"), "admin password")
	save := fs.String("save", "", "path to a deck json file to save (empty: print current deck)")
	_ = fs.Parse(args)

	cl, err := loggedInClient(*baseURL, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *save == "" {
		resp, err := cl.Get(apiURL(*baseURL, "/api/admin/deck"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "request:", err)
			os.Exit(1)
		}
		printBody(resp)
		return
	}

	payload, err := os.ReadFile(*save)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	resp, err := cl.Post(apiURL(*baseURL, "/api/admin/deck"), "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	printBody(resp)
}

func depositCmd(args []string) {
	fs := flag.NewFlagSet("deposit", flag.ExitOnError)
	baseURL := baseFlag(fs)
	amount := fs.Int64("amount", 0, "envelope amount (VND)")
	quantity := fs.Int("quantity", 1, "number of envelopes")
	_ = fs.Parse(args)

	body, _ := json.Marshal(map[string]any{"amount": *amount, "quantity": *quantity})
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Post(apiURL(*baseURL, "/api/deposit"), "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	printBody(resp)
}

func archivesCmd(args []string) {
	fs := flag.NewFlagSet("archives", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	names, err := listArchiveDirs(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	stamp := fs.String("archive", "", "archive directory name (from `admin archives`)")
	_ = fs.Parse(args)

	if *stamp == "" {
		fmt.Fprintln(os.Stderr, "missing -archive")
		os.Exit(2)
	}
	if err := showArchived(*dataDir, *stamp); err != nil {
		fmt.Fprintln(os.Stderr, "show:", err)
		os.Exit(1)
	}
}
