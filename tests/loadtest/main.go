package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Drives a running annolist instance. Refreshes hit the configured Grafana,
// so point it at a test stack.
const (
	baseURL       = "http://127.0.0.1:18090"
	numWorkers    = 50
	testDuration  = 10 * time.Second
	numPanels     = 20
	numDashboards = 10
)

var tags = []string{"deploy", "restart", "incident", "prod", "staging"}

var httpClient = &http.Client{
	Timeout: 15 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

type host struct {
	DashboardID int64            `json:"dashboardId"`
	OrgID       string           `json:"orgId"`
	TimeRange   map[string]int64 `json:"timeRange"`
}

func main() {
	fmt.Println("=== annolist load test ===")
	fmt.Printf("Workers: %d | Duration: %s | Panels: %d\n\n", numWorkers, testDuration, numPanels)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Refresh storm (POST /refresh) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doRefresh(rng)
	})

	fmt.Println("\n--- Phase 2: Interactive (filters racing refreshes) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.40:
			return doRefresh(rng)
		case r < 0.65:
			return doToggleTag(rng)
		case r < 0.80:
			return doGetPanel(rng)
		case r < 0.95:
			return doNavigate(rng)
		default:
			return doGet("/datasources")
		}
	})

	fmt.Println("\n--- Phase 3: Read-heavy (GET /panel) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.1 {
			return doRefresh(rng)
		}
		return doGetPanel(rng)
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func randomHost(rng *rand.Rand) host {
	now := time.Now().UnixMilli()
	return host{
		DashboardID: int64(rng.Intn(numDashboards) + 1),
		OrgID:       "1",
		TimeRange:   map[string]int64{"from": now - 6*3600*1000, "to": now},
	}
}

func panelID(rng *rand.Rand) string {
	return fmt.Sprintf("panel-%d", rng.Intn(numPanels))
}

func doPost(path string, body any) result {
	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+path, "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST " + path, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST " + path, resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doGet(path string) result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + path)
	lat := time.Since(start)
	endpoint := "GET " + strings.SplitN(path, "?", 2)[0]
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	// a panel nobody refreshed yet is a 404, not a failure
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound}
}

func doRefresh(rng *rand.Rand) result {
	return doPost("/refresh", map[string]any{"panel": panelID(rng), "host": randomHost(rng)})
}

func doToggleTag(rng *rand.Rand) result {
	return doPost("/filter/tag", map[string]any{
		"panel": panelID(rng),
		"tag":   tags[rng.Intn(len(tags))],
		"host":  randomHost(rng),
	})
}

func doNavigate(rng *rand.Rand) result {
	h := randomHost(rng)
	return doPost("/navigate", map[string]any{
		"panel": panelID(rng),
		"host":  h,
		"annotation": map[string]any{
			"time":        h.TimeRange["to"] - int64(rng.Intn(3600*1000)),
			"dashboardId": h.DashboardID,
			"panelId":     rng.Intn(8) + 1,
		},
	})
}

func doGetPanel(rng *rand.Rand) result {
	return doGet("/panel?id=" + panelID(rng))
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
