// Package test holds smoke scenarios run against a live preview service.
package test

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lawnchairsociety/mysticalmap/internal/mapgen"
	"github.com/lawnchairsociety/mysticalmap/internal/testclient"
)

const replyTimeout = 10 * time.Second

// uniqueCounter provides unique seeds within a single run
var uniqueCounter uint64

// uniqueSeed returns a seed no earlier scenario in this run has used.
func uniqueSeed(base string) string {
	n := atomic.AddUint64(&uniqueCounter, 1)
	return fmt.Sprintf("%s-%d-%d", base, time.Now().UnixNano(), n)
}

// Verbose controls whether detailed logging is shown during tests
var Verbose = false

// TestResult represents the result of a test
type TestResult struct {
	Name    string
	Passed  bool
	Message string
}

// logAction logs a test action when verbose mode is enabled
func logAction(testName, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", testName, action)
	}
}

func pass(name, message string) TestResult {
	return TestResult{Name: name, Passed: true, Message: message}
}

func fail(name, format string, args ...any) TestResult {
	return TestResult{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

// RunAllTests runs every scenario against the service at serverAddr.
func RunAllTests(serverAddr string) []TestResult {
	return []TestResult{
		TestBasicConnection(serverAddr),
		TestDeterminism(serverAddr),
		TestBlankSeeds(serverAddr),
		TestSeedVerbatim(serverAddr),
		TestMapStructure(serverAddr),
		TestSceneTotality(serverAddr),
		TestConcurrentSessions(serverAddr),
	}
}

// TestBasicConnection opens a session and requests one map.
func TestBasicConnection(serverAddr string) TestResult {
	name := "Basic Connection"

	client, err := testclient.NewTestClient("basic", serverAddr)
	if err != nil {
		return fail(name, "connect: %v", err)
	}
	defer client.Close()

	logAction(name, "requesting map for a fresh seed")
	m, err := client.RequestMap(uniqueSeed("basic"), replyTimeout)
	if err != nil {
		return fail(name, "request: %v", err)
	}
	return pass(name, fmt.Sprintf("received %d layers", len(m.Layers)))
}

// TestDeterminism checks that one seed yields one map across transports and
// against a local generation.
func TestDeterminism(serverAddr string) TestResult {
	name := "Determinism"
	seed := uniqueSeed("determinism")

	client, err := testclient.NewTestClient("determinism", serverAddr)
	if err != nil {
		return fail(name, "connect: %v", err)
	}
	defer client.Close()

	first, err := client.RequestMap(seed, replyTimeout)
	if err != nil {
		return fail(name, "first request: %v", err)
	}
	second, err := client.RequestMap(seed, replyTimeout)
	if err != nil {
		return fail(name, "second request: %v", err)
	}
	viaHTTP, err := client.GetMap(seed)
	if err != nil {
		return fail(name, "http request: %v", err)
	}

	if !first.Equal(second) || !first.Equal(viaHTTP) {
		return fail(name, "seed %q produced different maps", seed)
	}

	// Only meaningful when the service runs the default generator config.
	local, err := mapgen.GenerateMap(seed)
	if err == nil && !local.Equal(first) {
		logAction(name, "service map differs from local default generation (custom config?)")
	}
	return pass(name, "identical across requests and transports")
}

// TestBlankSeeds checks that blank seeds are replaced by distinct minted seeds.
func TestBlankSeeds(serverAddr string) TestResult {
	name := "Blank Seeds"

	client, err := testclient.NewTestClient("blank", serverAddr)
	if err != nil {
		return fail(name, "connect: %v", err)
	}
	defer client.Close()

	a, err := client.RequestMap("", replyTimeout)
	if err != nil {
		return fail(name, "request: %v", err)
	}
	b, err := client.RequestMap("   ", replyTimeout)
	if err != nil {
		return fail(name, "request: %v", err)
	}

	if !strings.HasPrefix(a.Seed, "mystic-") || !strings.HasPrefix(b.Seed, "mystic-") {
		return fail(name, "expected minted seeds, got %q and %q", a.Seed, b.Seed)
	}
	if a.Seed == b.Seed {
		return fail(name, "two blank seeds minted the same seed %q", a.Seed)
	}
	return pass(name, "minted "+a.Seed)
}

// TestSeedVerbatim checks that surrounding whitespace is part of the seed.
func TestSeedVerbatim(serverAddr string) TestResult {
	name := "Seed Verbatim"
	seed := "  " + uniqueSeed("padded") + "  "

	client, err := testclient.NewTestClient("verbatim", serverAddr)
	if err != nil {
		return fail(name, "connect: %v", err)
	}
	defer client.Close()

	m, err := client.RequestMap(seed, replyTimeout)
	if err != nil {
		return fail(name, "request: %v", err)
	}
	if m.Seed != seed {
		return fail(name, "seed came back as %q, want %q", m.Seed, seed)
	}
	return pass(name, "whitespace preserved")
}

// TestMapStructure validates several served maps.
func TestMapStructure(serverAddr string) TestResult {
	name := "Map Structure"

	client, err := testclient.NewTestClient("structure", serverAddr)
	if err != nil {
		return fail(name, "connect: %v", err)
	}
	defer client.Close()

	counts := make(map[int]int)
	for i := 0; i < 20; i++ {
		m, err := client.RequestMap(uniqueSeed("structure"), replyTimeout)
		if err != nil {
			return fail(name, "request %d: %v", i, err)
		}
		if err := mapgen.Validate(m); err != nil {
			return fail(name, "map %q: %v", m.Seed, err)
		}
		counts[len(m.Layers)]++
	}
	return pass(name, fmt.Sprintf("layer counts %v", counts))
}

// TestSceneTotality checks that every node of a map has a scene.
func TestSceneTotality(serverAddr string) TestResult {
	name := "Scene Totality"
	seed := uniqueSeed("scenes")

	client, err := testclient.NewTestClient("scenes", serverAddr)
	if err != nil {
		return fail(name, "connect: %v", err)
	}
	defer client.Close()

	m, err := client.GetMap(seed)
	if err != nil {
		return fail(name, "map: %v", err)
	}
	scenes, err := client.GetScenes(seed)
	if err != nil {
		return fail(name, "scenes: %v", err)
	}

	for _, node := range m.AllNodes() {
		if scenes[node.ID] == "" {
			return fail(name, "node %s has no scene", node.ID)
		}
	}
	return pass(name, fmt.Sprintf("%d nodes mapped", len(scenes)))
}

// TestConcurrentSessions requests the same seed from several sessions at once.
func TestConcurrentSessions(serverAddr string) TestResult {
	name := "Concurrent Sessions"
	seed := uniqueSeed("concurrent")
	const sessions = 2

	maps := make([]*mapgen.MysticalMap, sessions)
	errs := make([]error, sessions)

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, err := testclient.NewTestClient(fmt.Sprintf("concurrent%d", i), serverAddr)
			if err != nil {
				errs[i] = err
				return
			}
			defer client.Close()
			maps[i], errs[i] = client.RequestMap(seed, replyTimeout)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fail(name, "session %d: %v", i, err)
		}
	}
	for i := 1; i < sessions; i++ {
		if !maps[0].Equal(maps[i]) {
			return fail(name, "session %d received a different map", i)
		}
	}
	return pass(name, fmt.Sprintf("%d sessions agree", sessions))
}

// PrintResults prints a summary of test results
func PrintResults(results []TestResult) {
	passed := 0
	failed := 0

	fmt.Println("============================================================")
	fmt.Println("Preview Service Smoke Results")
	fmt.Println("============================================================")
	fmt.Println()

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		} else {
			passed++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.Name, r.Message)
	}

	fmt.Println()
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
	fmt.Println("------------------------------------------------------------")
}
