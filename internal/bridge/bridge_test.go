package bridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func testBridge(t *testing.T) *Bridge {
	t.Helper()
	b := New(Config{
		Name:        "Test Bridge",
		ID:          "example-plugin",
		Pin:         "031-45-154",
		StoragePath: t.TempDir(),
	}, nil)
	t.Cleanup(b.Teardown)
	return b
}

func TestAddAccessory(t *testing.T) {
	b := testBridge(t)

	a := NewAccessory("Lamp", "", []Service{{Type: "lightbulb"}})
	if err := b.AddAccessory(a); err != nil {
		t.Fatalf("AddAccessory() error = %v", err)
	}
	if !b.Has(a.UUID.String()) {
		t.Error("Has() = false for added accessory")
	}
	if got := len(b.Accessories()); got != 1 {
		t.Errorf("len(Accessories()) = %d, want 1", got)
	}
}

func TestAddAccessoryDuplicate(t *testing.T) {
	b := testBridge(t)

	a := NewAccessory("Lamp", "", []Service{{Type: "lightbulb"}})
	if err := b.AddAccessory(a); err != nil {
		t.Fatal(err)
	}
	if err := b.AddAccessory(a); err != ErrDuplicateAccessory {
		t.Errorf("second AddAccessory() error = %v, want ErrDuplicateAccessory", err)
	}
	if got := len(b.Accessories()); got != 1 {
		t.Errorf("len(Accessories()) = %d, want 1", got)
	}
}

func TestAddAccessoryEmptyServices(t *testing.T) {
	b := testBridge(t)

	a := NewAccessory("Ghost", "", nil)
	if err := b.AddAccessory(a); err != ErrNoServices {
		t.Errorf("AddAccessory() error = %v, want ErrNoServices", err)
	}
}

func TestRestoreCachedSkipsReassociated(t *testing.T) {
	b := testBridge(t)

	a := NewAccessory("Lamp", "", []Service{{Type: "lightbulb"}})
	if err := b.AddAccessory(a); err != nil {
		t.Fatal(err)
	}

	// Restoring the same record must not panic or duplicate.
	b.RestoreCached(a)
	if got := len(b.Accessories()); got != 1 {
		t.Errorf("len(Accessories()) = %d, want 1", got)
	}
}

func TestPublishServesEndpoints(t *testing.T) {
	b := testBridge(t)

	a := NewAccessory("Lamp", "", []Service{{Type: "lightbulb"}})
	if err := b.AddAccessory(a); err != nil {
		t.Fatal(err)
	}

	if err := b.Publish(); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !b.Published() {
		t.Error("Published() = false after Publish")
	}

	base := "http://" + b.Addr()

	resp, err := http.Get(base + "/accessories")
	if err != nil {
		t.Fatalf("GET /accessories: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /accessories status = %d", resp.StatusCode)
	}
	var snapshot struct {
		Bridge      string      `json:"bridge"`
		Accessories []Accessory `json:"accessories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Bridge != "Test Bridge" {
		t.Errorf("bridge name = %q", snapshot.Bridge)
	}
	if len(snapshot.Accessories) != 1 {
		t.Errorf("snapshot has %d accessories, want 1", len(snapshot.Accessories))
	}

	for _, path := range []string{"/live", "/ready", "/metrics"} {
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestPublishTwice(t *testing.T) {
	b := testBridge(t)

	if err := b.Publish(); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(); err != ErrAlreadyPublished {
		t.Errorf("second Publish() error = %v, want ErrAlreadyPublished", err)
	}
}

func TestReadinessBeforePublish(t *testing.T) {
	b := testBridge(t)

	if err := b.Publish(); err != nil {
		t.Fatal(err)
	}

	// Published, so readiness must pass now.
	resp, err := http.Get(fmt.Sprintf("http://%s/ready", b.Addr()))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready status = %d, want 200", resp.StatusCode)
	}
}

func TestLivenessCheckFailure(t *testing.T) {
	b := testBridge(t)
	b.AddLivenessCheck("parent-channel", func() error {
		return fmt.Errorf("disconnected")
	})

	if err := b.Publish(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/live", b.Addr()))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("GET /live status = %d, want 503", resp.StatusCode)
	}
}

func TestTeardownIdempotent(t *testing.T) {
	b := testBridge(t)
	if err := b.Publish(); err != nil {
		t.Fatal(err)
	}

	b.Teardown()
	b.Teardown() // must be a no-op

	if b.Published() {
		t.Error("Published() = true after Teardown")
	}
	if err := b.AddAccessory(NewAccessory("Late", "", []Service{{Type: "switch"}})); err != ErrTornDown {
		t.Errorf("AddAccessory() after Teardown error = %v, want ErrTornDown", err)
	}
	if err := b.Publish(); err != ErrTornDown {
		t.Errorf("Publish() after Teardown error = %v, want ErrTornDown", err)
	}
}

func TestTeardownFlushesCache(t *testing.T) {
	storage := t.TempDir()
	b := New(Config{Name: "B", ID: "flush-test", StoragePath: storage}, nil)

	a := NewAccessory("Lamp", "", []Service{{Type: "lightbulb"}})
	if err := b.AddAccessory(a); err != nil {
		t.Fatal(err)
	}
	b.Teardown()

	// A new bridge over the same storage sees the flushed accessory.
	b2 := New(Config{Name: "B", ID: "flush-test", StoragePath: storage}, nil)
	cached, err := b2.LoadCachedAccessories()
	if err != nil {
		t.Fatalf("LoadCachedAccessories() error = %v", err)
	}
	if len(cached) != 1 || cached[0].UUID != a.UUID {
		t.Errorf("cached = %v, want the flushed accessory", cached)
	}
}
