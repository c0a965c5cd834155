// Command store_parity compares the public read surface of two running API
// instances, one on the in-memory store and one on postgres, and reports
// response diffs. Used when promoting seeded demo data into a database.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target         target
	MemoryStatus   int
	PostgresStatus int
	StatusMatch    bool
	BodyMatch      bool
	Error          error
	DurationMem    time.Duration
	DurationPg     time.Duration
}

// Volatile fields that legitimately differ between stores.
var ignoredKeys = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"published_at": true,
	"generated_at": true,
	"request_id":   true,
}

func main() {
	var (
		memBase     string
		pgBase      string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&memBase, "memory-base", "http://localhost:8080", "Memory-store API base URL")
	flag.StringVar(&pgBase, "postgres-base", "http://localhost:8081", "Postgres-store API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "store_parity", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, memBase, pgBase, t)
		if comp.Error != nil {
			if t.Critical {
				breaking++
			}
		} else {
			if !comp.StatusMatch || !comp.BodyMatch {
				if t.Critical {
					breaking++
				} else {
					optionalDiff++
				}
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, memBase, pgBase string, tgt target) comparison {
	comp := comparison{Target: tgt}
	memResp, memDur, memErr := performRequest(client, memBase, tgt)
	pgResp, pgDur, pgErr := performRequest(client, pgBase, tgt)
	comp.DurationMem = memDur
	comp.DurationPg = pgDur

	if memErr != nil {
		comp.Error = fmt.Errorf("memory request failed: %w", memErr)
		return comp
	}
	if pgErr != nil {
		comp.Error = fmt.Errorf("postgres request failed: %w", pgErr)
		return comp
	}

	comp.MemoryStatus = memResp.StatusCode
	comp.PostgresStatus = pgResp.StatusCode
	comp.StatusMatch = comp.MemoryStatus == comp.PostgresStatus

	defer memResp.Body.Close()
	defer pgResp.Body.Close()

	memBody, err := io.ReadAll(memResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read memory body: %w", err)
		return comp
	}
	pgBody, err := io.ReadAll(pgResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read postgres body: %w", err)
		return comp
	}

	comp.BodyMatch = bodiesEqual(memBody, pgBody)

	return comp
}

func performRequest(client *http.Client, base string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k := range val {
			if ignoredKeys[k] {
				delete(val, k)
			}
		}
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []comparison) {
	fmt.Println("Store Parity Report")
	fmt.Println("===================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Printf("  Memory Status: %d (%s)\n", res.MemoryStatus, res.DurationMem)
		fmt.Printf("  Postgres Status: %d (%s)\n", res.PostgresStatus, res.DurationPg)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
