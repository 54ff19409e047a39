package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fulfillment-mutation-lab/internal/chainrpc"
	"fulfillment-mutation-lab/internal/derivation"
	"fulfillment-mutation-lab/internal/domain"
	"fulfillment-mutation-lab/internal/driver"
	"fulfillment-mutation-lab/internal/eligibility"
	"fulfillment-mutation-lab/internal/idhash"
	"fulfillment-mutation-lab/internal/mutation"
	"fulfillment-mutation-lab/internal/protocol"
	"fulfillment-mutation-lab/internal/protocol/stub"
	"fulfillment-mutation-lab/internal/scenario"
	"fulfillment-mutation-lab/internal/storage"
	chstore "fulfillment-mutation-lab/internal/storage/clickhouse"
	"fulfillment-mutation-lab/internal/storage/memory"
	"fulfillment-mutation-lab/internal/storage/migrations"
	pgstore "fulfillment-mutation-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	entryName := flag.String("entry", "", "Entry point: FULFILL, FULFILL_ADVANCED, FULFILL_BASIC, FULFILL_AVAILABLE, FULFILL_AVAILABLE_ADVANCED, MATCH, MATCH_ADVANCED, CANCEL, VALIDATE (required)")
	failureName := flag.String("failure", "", "Force a specific failure mode label instead of picking one")
	fixtureName := flag.String("fixture", "single", "Scenario fixture: single, criteria, wildcard, match")
	seed := flag.Int64("seed", 1, "Seed for candidate selection")
	weightSpec := flag.String("weights", "", "Comma-separated MODE=weight overrides for weighted selection")
	listOnly := flag.Bool("list", false, "Print the eligible set and exit without applying")

	// Execution backend
	rpcEndpoint := flag.String("rpc-endpoint", "", "Chain RPC HTTP endpoint (in-process stubs when empty)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	persistResult := flag.Bool("persist", false, "Persist the outcome record to storage")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[mutate] ", log.LstdFlags)

	// Validate required flags
	if *entryName == "" {
		logger.Fatal("--entry is required")
	}
	entry, ok := domain.ParseEntryPoint(strings.ToUpper(*entryName))
	if !ok {
		logger.Fatalf("Invalid entry point: %s", *entryName)
	}

	var forced *domain.FailureMode
	if *failureName != "" {
		mode, ok := domain.ParseFailureMode(strings.ToUpper(*failureName))
		if !ok {
			logger.Fatalf("Invalid failure mode: %s", *failureName)
		}
		forced = &mode
	}

	weights, err := parseWeights(*weightSpec)
	if err != nil {
		logger.Fatalf("Invalid --weights: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Build the scenario fixture
	s := buildFixture(*fixtureName, entry)
	if s == nil {
		logger.Fatalf("Invalid fixture: %s. Must be single, criteria, wildcard, or match", *fixtureName)
	}

	// Wire collaborators: in-process stubs by default, the RPC client when an
	// endpoint is given.
	deriver := derivation.New(scenario.Address(99, false), nil, nil)

	var (
		market protocol.Marketplace
		reader protocol.StateReader
		writer protocol.StateWriter
		tokens protocol.TokenController
		probe  protocol.OffererProbe
		signer mutation.Signer
	)
	if *rpcEndpoint != "" {
		client := chainrpc.NewHTTPClient(*rpcEndpoint)
		market, reader, writer, tokens, probe, signer = client, client, client, client, client, client
	} else {
		state := stub.NewState()
		market = stub.NewMarketplace()
		reader, writer = state, state
		tokens = stub.NewTokenController()
		probe = stub.NewOffererProbe()
	}

	filters := eligibility.New(deriver, reader, probe)
	exec := driver.New(market)
	apps := mutation.NewApplicators(deriver, writer, tokens, probe, signer, exec)
	registry := mutation.NewRegistry(filters, apps)

	// Evaluate every filter against every target
	candidates := registry.EligibleSet(ctx, s)
	logger.Printf("Eligible set: %d candidates for %s/%s", len(candidates), entry, *fixtureName)

	if *listOnly {
		printCandidates(candidates, *outputJSON)
		return
	}

	// Select the candidate to apply
	rng := rand.New(rand.NewSource(*seed))
	cand, ok := selectCandidate(rng, candidates, weights, forced)
	if !ok {
		if forced != nil {
			logger.Fatalf("Failure mode %s is not eligible for this scenario", *forced)
		}
		logger.Fatal("No eligible candidate to apply")
	}
	logger.Printf("Applying %s target=(order=%d resolver=%d)", cand.Mode, cand.Target.OrderIndex, cand.Target.ResolverIndex)

	// Apply the mutation and drive execution
	start := time.Now()
	out, err := registry.Apply(ctx, cand.Mode, s, cand.Target)
	elapsed := time.Since(start)
	if err != nil {
		logger.Fatalf("apply mutation: %v", err)
	}

	runID := idhash.ComputeRunID(entry.String(), cand.Mode.String(), *seed, s.OrderHashes[0])
	record := driver.BuildOutcome(runID, cand.Mode, s, cand.Target, out, elapsed)

	// Persist when requested
	if *persistResult {
		store, statusStore, cleanup, err := openStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
		if err != nil {
			logger.Fatalf("open outcome store: %v", err)
		}
		defer cleanup()

		if err := store.Insert(ctx, &record); err != nil {
			logger.Fatalf("persist outcome: %v", err)
		}
		logger.Printf("Persisted outcome run_id=%s", record.RunID)

		// Snapshot post-execution order statuses next to the outcome so the
		// checker can correlate them later. ClickHouse carries outcomes only.
		if statusStore != nil {
			for i, hash := range s.OrderHashes {
				status, err := reader.OrderStatus(ctx, hash)
				if err != nil {
					logger.Printf("read status of order %d: %v", i, err)
					continue
				}
				if err := statusStore.Put(ctx, hash, status); err != nil {
					logger.Printf("persist status of order %d: %v", i, err)
				}
			}
		}
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(output))
	} else {
		printOutcome(&record)
	}
}

// buildFixture returns the named scenario fixture, or nil for an unknown name.
func buildFixture(name string, entry domain.EntryPoint) *domain.Scenario {
	switch strings.ToLower(name) {
	case "single":
		return scenario.SingleOrder(entry)
	case "criteria":
		return scenario.CriteriaOrder(entry, false)
	case "wildcard":
		return scenario.CriteriaOrder(entry, true)
	case "match":
		return scenario.MatchPair(entry)
	default:
		return nil
	}
}

// parseWeights parses "MODE=2.5,OTHER_MODE=0" into a weight map.
func parseWeights(spec string) (map[domain.FailureMode]float64, error) {
	if spec == "" {
		return nil, nil
	}
	weights := make(map[domain.FailureMode]float64)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, value, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("expected MODE=weight, got %q", part)
		}
		mode, ok := domain.ParseFailureMode(strings.ToUpper(strings.TrimSpace(label)))
		if !ok {
			return nil, fmt.Errorf("unknown failure mode %q", label)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parse weight for %s: %w", mode, err)
		}
		weights[mode] = w
	}
	return weights, nil
}

// selectCandidate picks the candidate to apply. A forced mode restricts the
// set to that mode's candidates first; a weight map switches to weighted
// selection.
func selectCandidate(rng *rand.Rand, candidates []mutation.Candidate, weights map[domain.FailureMode]float64, forced *domain.FailureMode) (mutation.Candidate, bool) {
	if forced != nil {
		var matching []mutation.Candidate
		for _, c := range candidates {
			if c.Mode == *forced {
				matching = append(matching, c)
			}
		}
		return mutation.Pick(rng, matching)
	}
	if len(weights) > 0 {
		return mutation.PickWeighted(rng, candidates, weights)
	}
	return mutation.Pick(rng, candidates)
}

// openStores selects the outcome and order-status stores from the storage
// flags and runs migrations on the database-backed ones. ClickHouse wins when
// both DSNs are given; it stores outcomes only.
func openStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.OutcomeStore, storage.OrderStatusStore, func(), error) {
	if useMemory {
		return memory.NewOutcomeStore(), memory.NewOrderStatusStore(), func() {}, nil
	}
	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		return chstore.NewOutcomeStore(conn), nil, func() { conn.Close() }, nil
	}
	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		return pgstore.NewOutcomeStore(pool), pgstore.NewOrderStatusStore(pool), func() { pool.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("--postgres-dsn or --clickhouse-dsn is required with --persist (use --use-memory to skip the database)")
}

// printCandidates outputs the eligible set.
func printCandidates(candidates []mutation.Candidate, asJSON bool) {
	if asJSON {
		type row struct {
			FailureMode   string `json:"failureMode"`
			OrderIndex    int    `json:"orderIndex"`
			ResolverIndex int    `json:"resolverIndex"`
		}
		rows := make([]row, 0, len(candidates))
		for _, c := range candidates {
			rows = append(rows, row{
				FailureMode:   c.Mode.String(),
				OrderIndex:    c.Target.OrderIndex,
				ResolverIndex: c.Target.ResolverIndex,
			})
		}
		output, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Println()
	fmt.Println("=== Eligible Candidates ===")
	for _, c := range candidates {
		fmt.Printf("  %-34s order=%d resolver=%d\n", c.Mode, c.Target.OrderIndex, c.Target.ResolverIndex)
	}
	fmt.Printf("Total: %d\n", len(candidates))
}

// printOutcome outputs a human-readable mutation outcome.
func printOutcome(o *domain.MutationOutcome) {
	fmt.Println()
	fmt.Println("=== Mutation Outcome ===")
	fmt.Printf("Run ID:         %s\n", o.RunID)
	fmt.Printf("Failure Mode:   %s\n", o.FailureMode)
	fmt.Printf("Entry Point:    %s\n", o.EntryPoint)
	fmt.Printf("Target:         order=%d resolver=%d\n", o.OrderIndex, o.ResolverIndex)
	fmt.Println()
	fmt.Printf("Status:         %s\n", o.Status)
	if o.RevertReason != "" {
		fmt.Printf("Revert Reason:  %s\n", o.RevertReason)
	}
	fmt.Printf("Duration:       %v\n", time.Duration(o.DurationMs)*time.Millisecond)
	fmt.Printf("Created At:     %s\n", time.UnixMilli(o.CreatedAt).Format(time.RFC3339Nano))
}
