package core

import (
	"context"
	"testing"
)

func TestHandleTabUpdateClosesTabOnCallbackNavigation(t *testing.T) {
	tabs := &stubTabs{}
	store := NewMemoryScaEntryStore()
	sink := &stubSink{}
	svc := newTestService(t,
		WithTabController(tabs),
		WithScaEntryStore(store),
		WithStatusSink(sink),
	)
	if err := store.Register(context.Background(), PendingScaEntry{TransactionID: "tx-1", TabID: 42}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	callback := svc.Config().Backend.CallbackURLPrefix + "?status=ok"
	if err := svc.HandleTabUpdate(context.Background(), TabUpdate{TabID: 42, URL: callback}); err != nil {
		t.Fatalf("HandleTabUpdate returned error: %v", err)
	}

	if len(tabs.closed) != 1 || tabs.closed[0] != 42 {
		t.Fatalf("expected tab 42 closed, got %v", tabs.closed)
	}
	if _, found, _ := store.ResolveByTab(context.Background(), 42); found {
		t.Fatalf("correlation entry must be removed")
	}
	if len(sink.events) != 0 {
		t.Fatalf("callback navigation must not produce a status event")
	}
}

func TestHandleTabUpdateIgnoresUnrelatedNavigation(t *testing.T) {
	tabs := &stubTabs{}
	store := NewMemoryScaEntryStore()
	svc := newTestService(t,
		WithTabController(tabs),
		WithScaEntryStore(store),
	)
	if err := store.Register(context.Background(), PendingScaEntry{TransactionID: "tx-1", TabID: 42}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.HandleTabUpdate(context.Background(), TabUpdate{TabID: 42, URL: "https://bank.example/3ds/step2"}); err != nil {
		t.Fatalf("HandleTabUpdate returned error: %v", err)
	}
	if len(tabs.closed) != 0 {
		t.Fatalf("intermediate navigation must not close the tab")
	}
	if _, found, _ := store.ResolveByTab(context.Background(), 42); !found {
		t.Fatalf("entry must survive intermediate navigation")
	}
}

func TestHandleTabUpdateIgnoresForeignTabs(t *testing.T) {
	tabs := &stubTabs{}
	svc := newTestService(t, WithTabController(tabs))

	callback := svc.Config().Backend.CallbackURLPrefix + "/done"
	if err := svc.HandleTabUpdate(context.Background(), TabUpdate{TabID: 99, URL: callback}); err != nil {
		t.Fatalf("HandleTabUpdate returned error: %v", err)
	}
	if len(tabs.closed) != 0 {
		t.Fatalf("tabs without a correlation entry must be left alone")
	}
}
