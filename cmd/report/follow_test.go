package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fulfillment-mutation-lab/internal/chainrpc"
)

// fakeEventClient hands out a scripted event channel and records the filter.
type fakeEventClient struct {
	events chan chainrpc.ExecutionEvent
	filter chainrpc.ExecutionFilter
	closed bool
}

func (f *fakeEventClient) SubscribeExecutions(_ context.Context, filter chainrpc.ExecutionFilter) (<-chan chainrpc.ExecutionEvent, error) {
	f.filter = filter
	return f.events, nil
}

func (f *fakeEventClient) Close() error {
	f.closed = true
	return nil
}

func TestFollowExecutionsWritesEvents(t *testing.T) {
	client := &fakeEventClient{events: make(chan chainrpc.ExecutionEvent, 2)}
	client.events <- chainrpc.ExecutionEvent{
		EntryPoint:   "FULFILL",
		Status:       "REVERT",
		RevertReason: "InvalidSignature",
		OrderHashes:  []string{"hash-1"},
		BlockHeight:  42,
	}
	client.events <- chainrpc.ExecutionEvent{EntryPoint: "VALIDATE", Status: "SUCCESS"}
	close(client.events)

	var out strings.Builder
	filter := chainrpc.ExecutionFilter{EntryPoints: []string{"FULFILL", "VALIDATE"}}
	if err := followExecutions(context.Background(), client, filter, &out, false); err != nil {
		t.Fatalf("followExecutions: %v", err)
	}

	if client.filter.EntryPoints[0] != "FULFILL" {
		t.Errorf("filter not forwarded: %+v", client.filter)
	}
	got := out.String()
	for _, want := range []string{"FULFILL", "REVERT", "InvalidSignature", "hash-1", "height=42", "VALIDATE", "SUCCESS"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFollowExecutionsStopsOnCancel(t *testing.T) {
	client := &fakeEventClient{events: make(chan chainrpc.ExecutionEvent)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := followExecutions(ctx, client, chainrpc.ExecutionFilter{}, &out, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseEntryFilter(t *testing.T) {
	filter, err := parseEntryFilter("fulfill, MATCH_ADVANCED")
	if err != nil {
		t.Fatalf("parseEntryFilter: %v", err)
	}
	if len(filter.EntryPoints) != 2 || filter.EntryPoints[0] != "FULFILL" || filter.EntryPoints[1] != "MATCH_ADVANCED" {
		t.Errorf("unexpected filter: %+v", filter)
	}

	empty, err := parseEntryFilter("")
	if err != nil || len(empty.EntryPoints) != 0 {
		t.Errorf("empty spec should match all: %+v err=%v", empty, err)
	}

	if _, err := parseEntryFilter("bogus"); err == nil {
		t.Error("expected error for unknown entry point")
	}
}
