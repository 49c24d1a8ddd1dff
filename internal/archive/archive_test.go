package archive_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/swalker2m/gem-odb-api/internal/archive"
	"github.com/swalker2m/gem-odb-api/internal/core"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

func storesUnderTest(t *testing.T) map[string]archive.Store {
	t.Helper()
	fsStore, err := archive.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	return map[string]archive.Store{
		"memory": archive.NewMemory(),
		"fs":     fsStore,
	}
}

func TestStorePutGetDeleteList(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			info, err := st.Put(ctx, "snapshots/a.json", strings.NewReader(`{"n":1}`), archive.PutOptions{ContentType: "application/json"})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Key != "snapshots/a.json" || info.Size != 7 {
				t.Fatalf("unexpected info: %+v", info)
			}

			// create-only: a second put on the same key fails
			if _, err := st.Put(ctx, "snapshots/a.json", strings.NewReader("x"), archive.PutOptions{}); err == nil {
				t.Fatalf("expected duplicate put to fail")
			}

			got, rc, err := st.Get(ctx, "snapshots/a.json")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(body) != `{"n":1}` {
				t.Fatalf("content mismatch: %q", body)
			}
			if got.ContentType != "application/json" {
				t.Fatalf("content type lost: %+v", got)
			}

			if _, err := st.Put(ctx, "snapshots/b.json", strings.NewReader("{}"), archive.PutOptions{}); err != nil {
				t.Fatalf("put b: %v", err)
			}
			if _, err := st.Put(ctx, "other/c.json", strings.NewReader("{}"), archive.PutOptions{}); err != nil {
				t.Fatalf("put c: %v", err)
			}

			infos, err := st.List(ctx, "snapshots/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(infos) != 2 || infos[0].Key != "snapshots/a.json" || infos[1].Key != "snapshots/b.json" {
				t.Fatalf("unexpected listing: %+v", infos)
			}

			ok, err := st.Delete(ctx, "snapshots/a.json")
			if err != nil || !ok {
				t.Fatalf("delete: %v %v", ok, err)
			}
			if _, _, err := st.Get(ctx, "snapshots/a.json"); err == nil {
				t.Fatalf("deleted object still readable")
			}
			if ok, err := st.Delete(ctx, "snapshots/a.json"); err != nil || ok {
				t.Fatalf("second delete should report not-existed: %v %v", ok, err)
			}
		})
	}
}

func TestFilesystemStoreRejectsTraversal(t *testing.T) {
	st, err := archive.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "a/../../b", "/abs"} {
		if _, err := st.Put(ctx, key, strings.NewReader("x"), archive.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestOpenFromEnv(t *testing.T) {
	t.Setenv("ODB_ARCHIVE_DRIVER", "fs")
	t.Setenv("ODB_ARCHIVE_FS_ROOT", t.TempDir())

	st, err := archive.OpenFromEnv(context.Background())
	if err != nil {
		t.Fatalf("open from env: %v", err)
	}
	if st.Driver() != archive.DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", st.Driver())
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := archive.Open(context.Background(), archive.Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver to fail")
	}
}

func TestSnapshotExportFetchRoundtrip(t *testing.T) {
	s := core.NewService()
	ctx := context.Background()

	p, err := s.CreateProgram(ctx, odb.ProgramCreate{Name: "SV-101"})
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	tgt, err := s.CreateTarget(ctx, odb.TargetCreate{
		Name:       "T",
		Sidereal:   odb.Sidereal{RA: "00:00:00", Dec: "+00:00:00"},
		ProgramIDs: []odb.ProgramID{p.ID},
	})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	if err := s.DeleteTarget(ctx, tgt.ID); err != nil {
		t.Fatalf("delete target: %v", err)
	}

	takenAt := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	doc := archive.BuildSnapshot(s.Store().Snapshot(), s.LastEventID(), takenAt)

	dst := archive.NewMemory()
	info, err := archive.Export(ctx, dst, doc)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	wantKey := "snapshots/20260826T120000Z-3.json"
	if info.Key != wantKey {
		t.Fatalf("snapshot key = %q, want %q", info.Key, wantKey)
	}

	got, err := archive.Fetch(ctx, dst, info.Key)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.LastEventID != 3 {
		t.Fatalf("last event id = %v", got.LastEventID)
	}
	if len(got.Programs) != 1 || got.Programs[0].Name != "SV-101" {
		t.Fatalf("programs lost in roundtrip: %+v", got.Programs)
	}
	// soft-deleted rows are archived with their flag intact
	if len(got.Targets) != 1 || !got.Targets[0].Existence.IsDeleted() {
		t.Fatalf("deleted target not preserved: %+v", got.Targets)
	}
	if tids := got.ProgramTargets[p.ID]; len(tids) != 1 || tids[0] != tgt.ID {
		t.Fatalf("relation edges lost: %+v", got.ProgramTargets)
	}
	if got.Counters[odb.EntityProgram] != 1 || got.Counters[odb.EntityTarget] != 1 {
		t.Fatalf("counters lost: %+v", got.Counters)
	}

	infos, err := archive.ListSnapshots(ctx, dst)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != wantKey {
		t.Fatalf("unexpected snapshot listing: %+v", infos)
	}
}
