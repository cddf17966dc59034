package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type kvFlag map[string]string

func (k kvFlag) String() string { return fmt.Sprint(map[string]string(k)) }

func (k kvFlag) Set(v string) error {
	key, val, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("want key=value, got %q", v)
	}
	k[strings.TrimSpace(key)] = val
	return nil
}

type result struct {
	Success     bool   `json:"success"`
	Latency     *int64 `json:"latency"`
	Error       string `json:"error"`
	Details     string `json:"details"`
	TestedAt    string `json:"tested_at"`
	Integration string `json:"integration"`
}

func main() {
	cfg := kvFlag{}
	api := flag.String("api", envOr("API_BASE", "http://localhost:8080"), "probe service base URL")
	key := flag.String("key", os.Getenv("API_KEY"), "API key sent as X-API-Key")
	name := flag.String("name", "", "integration display name")
	asJSON := flag.Bool("json", false, "print the raw JSON response")
	flag.Var(cfg, "c", "config entry key=value (repeatable)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: cli [flags] <integrationId>")
		fmt.Fprintln(os.Stderr, "  e.g. cli -c host=smsc.example -c port=2775 smpp")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	body, _ := json.Marshal(map[string]any{
		"integrationId":   flag.Arg(0),
		"integrationName": *name,
		"config":          map[string]string(cfg),
	})
	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*api, "/")+"/api/integrations/test", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid API URL:", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if *key != "" {
		req.Header.Set("X-API-Key", *key)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var res result
	raw := new(bytes.Buffer)
	if err := json.NewDecoder(io.TeeReader(resp.Body, raw)).Decode(&res); err != nil {
		fmt.Fprintln(os.Stderr, "API returned status:", resp.Status)
		os.Exit(1)
	}
	if *asJSON {
		fmt.Println(strings.TrimSpace(raw.String()))
	} else if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "API returned %s: %s\n", resp.Status, res.Error)
	} else {
		printResult(res)
	}
	if resp.StatusCode != http.StatusOK || !res.Success {
		os.Exit(1)
	}
}

func printResult(r result) {
	mark := "✖ unreachable"
	if r.Success {
		mark = "✔ reachable"
	}
	lat := "n/a"
	if r.Latency != nil {
		lat = fmt.Sprintf("%dms", *r.Latency)
	}
	fmt.Printf("%s  latency=%s  at=%s\n", mark, lat, r.TestedAt)
	if r.Error != "" {
		fmt.Println("error:  ", r.Error)
	}
	if r.Details != "" {
		fmt.Println("details:", r.Details)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
