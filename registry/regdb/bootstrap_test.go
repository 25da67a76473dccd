package regdb_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/regdb/registry"
)

func TestBootstrap(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		ctx := context.Background()

		if err := f.db.Bootstrap(ctx); err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		for _, path := range []string{
			`HKLM\SOFTWARE\Samba\smbconf`,
			`HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Perflib\009`,
			`HKLM\SYSTEM\CurrentControlSet\Control\Terminal Server\DefaultUserConfiguration`,
			`HKLM\SYSTEM\CurrentControlSet\Services\Eventlog`,
			"HKU",
			"HKPT",
		} {
			exists, err := f.db.KeyExists(ctx, path)

			if err != nil {
				t.Fatalf("expected err to be nil, got %#v", err)
			}

			if !exists {
				t.Fatalf("expected %s to exist", path)
			}
		}

		catalog, err := f.db.FetchSubkeys(ctx, `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion`)

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if diff := cmp.Diff([]string{"Print", "Ports", "Perflib"}, catalog.Names); diff != "" {
			t.Fatal(diff)
		}

		spool, err := f.db.GetValue(ctx, `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Print\Printers`, "DefaultSpoolDirectory")

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if diff := cmp.Diff(`C:\Windows\System32\Spool\Printers`, spool.Display()); diff != "" {
			t.Fatal(diff)
		}

		before := mustSequence(t, f.db)

		if err := f.db.Bootstrap(ctx); err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if after := mustSequence(t, f.db); after != before {
			t.Fatalf("expected a second bootstrap to change nothing, sequence went from %d to %d", before, after)
		}
	})
}

func TestBootstrapPreservesEdits(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		eventlog := `HKLM\SYSTEM\CurrentControlSet\Services\Eventlog`

		if err := f.db.Bootstrap(ctx); err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		value, err := f.db.GetValue(ctx, eventlog, "ErrorControl")

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if n, err := value.AsDword(); err != nil || n != 1 {
			t.Fatalf("expected ErrorControl to default to 1, got %d (%v)", n, err)
		}

		if err := f.db.SetValue(ctx, eventlog, registry.DwordValue("ErrorControl", 2)); err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if err := f.db.Bootstrap(ctx); err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		value, err = f.db.GetValue(ctx, eventlog, "ErrorControl")

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if n, err := value.AsDword(); err != nil || n != 2 {
			t.Fatalf("expected ErrorControl to stay at 2, got %d (%v)", n, err)
		}
	})
}

func TestBootstrapWritesVersion(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		if err := f.db.Bootstrap(context.Background()); err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		transaction, err := f.store.Begin(false)

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		defer transaction.Rollback()

		raw, err := transaction.Get([]byte(registry.VersionKey))

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		version, err := registry.UnpackVersion(raw)

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if version != 1 {
			t.Fatalf("expected version 1, got %d", version)
		}
	})
}
