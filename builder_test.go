package goAdmin

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goAdmin/internal/clock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBuilderIsSingleUse(t *testing.T) {
	b := New()
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("second build must fail")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LoginTypes = nil
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuilderRedisDriverPersistsUnderPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := DefaultConfig()
	cfg.Storage.Driver = StorageRedis
	cfg.Storage.RedisPrefix = "ga"
	client, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer client.Close()

	tab := client.OpenTab("browser-1", nil)
	defer tab.Close()
	if err := tab.Lockout.RecordAttempts(context.Background(), LoginTypeAdmin, 2); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := mr.Get("ga:browser-1:attempts_admin")
	if err != nil || got != "2" {
		t.Fatalf("expected namespaced redis key, got %q err=%v", got, err)
	}
}

func TestBuilderRedisDriverUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	cfg := DefaultConfig()
	cfg.Storage.Driver = StorageRedis
	cfg.Storage.RedisAddr = addr
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

func TestBuilderFileDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	cfg := DefaultConfig()
	cfg.Storage.Driver = StorageFile
	cfg.Storage.FilePath = path

	client, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tab := client.OpenTab("", nil)
	_ = tab.Lockout.RecordLockout(context.Background(), LoginTypeEditor, 30)
	tab.Close()
	_ = client.Close()

	again, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	defer again.Close()
	st, err := again.OpenTab("", nil).Lockout.State(context.Background(), LoginTypeEditor)
	if err != nil || !st.Locked {
		t.Fatalf("lockout must survive a restart, got %+v err=%v", st, err)
	}
}

func TestAuditEventsReachSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	fc := clock.NewFake(testEpoch)
	client, err := New().WithConfig(cfg).WithClock(fc).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tab := client.OpenTab("ns-1", nil)
	tab.Session.Login(Identity{Token: "t", LoginType: LoginTypeAdmin, Email: "a@x.com"})
	if err := tab.Session.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_ = client.Close()

	out := buf.String()
	if !strings.Contains(out, `"event_type":"logout"`) || !strings.Contains(out, `"namespace":"ns-1"`) {
		t.Fatalf("expected logout audit event, got %s", out)
	}
	if !strings.Contains(out, testEpoch.Format(time.RFC3339)) {
		t.Fatalf("audit timestamp must come from the client clock, got %s", out)
	}
}
