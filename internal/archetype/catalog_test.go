package archetype

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formtree/pkg/transport"
)

func TestCatalog_ListSortedByName(t *testing.T) {
	catalog, err := NewCatalog("testdata")
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}

	want := []Entry{
		{ID: "openEHR-EHR-CLUSTER.empty.v0", Name: "Amas vide"},
		{ID: "openEHR-EHR-OBSERVATION.blood_pressure.v2", Name: "Blood pressure"},
		{ID: "openEHR-EHR-CLUSTER.anatomical_location.v1", Name: "Cluster"},
		{ID: "openEHR-EHR-CLUSTER.vitals.v1", Name: "Vital signs"},
	}
	if diff := cmp.Diff(want, catalog.List(), cmpopts.IgnoreFields(Entry{}, "Path")); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_FetchSchema(t *testing.T) {
	catalog, err := NewCatalog("testdata")
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	ctx := context.Background()

	schema, err := catalog.FetchSchema(ctx, "openEHR-EHR-CLUSTER.vitals.v1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(schema) != 1 || len(schema[0].Children) != 12 {
		t.Fatalf("unexpected schema shape: %+v", schema)
	}

	for _, id := range []string{"missing", "openEHR-EHR-OBSERVATION.blood_pressure.v2", "openEHR-EHR-CLUSTER.empty.v0"} {
		if _, err := catalog.FetchSchema(ctx, id); !errors.Is(err, transport.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestCatalog_RejectsMissingRoot(t *testing.T) {
	if _, err := NewCatalog(filepath.Join("testdata", "does-not-exist")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestCatalog_WatchRescans(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, "openEHR-EHR-CLUSTER.vitals.v1.xml", dir)

	scans := make(chan []Entry, 8)
	catalog, err := NewCatalog(dir,
		WithDebounce(20*time.Millisecond),
		WithScanHook(func(entries []Entry) {
			select {
			case scans <- entries:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	<-scans

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := catalog.Watch(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}

	copyFixture(t, "openEHR-EHR-CLUSTER.empty.v0.xml", dir)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case entries := <-scans:
			if len(entries) == 2 {
				if _, ok := catalog.Lookup("openEHR-EHR-CLUSTER.empty.v0"); !ok {
					t.Fatal("new archetype not indexed")
				}
				return
			}
		case <-deadline:
			t.Fatalf("catalog did not rescan; entries: %+v", catalog.List())
		}
	}
}

func copyFixture(t *testing.T, name, dir string) {
	t.Helper()
	data := readFixture(t, name)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}
