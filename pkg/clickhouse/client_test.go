package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:         "ch.local",
		Port:         9440,
		Database:     "equitylens",
		User:         "reader",
		Password:     "p@ss",
		DialTimeout:  5 * time.Second,
		MaxExecTime:  30 * time.Second,
		AsyncInsert:  true,
		WaitForAsync: true,
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse %q: %v", dsn, err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9440" || u.Path != "/equitylens" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	if pw, _ := u.User.Password(); u.User.Username() != "reader" || pw != "p@ss" {
		t.Fatalf("credentials not preserved in %q", dsn)
	}
	q := u.Query()
	if q.Get("dial_timeout") != "5s" || q.Get("max_execution_time") != "30" ||
		q.Get("async_insert") != "1" || q.Get("wait_for_async_insert") != "1" {
		t.Fatalf("unexpected settings %v", q)
	}
	if q.Has("read_timeout") {
		t.Fatalf("zero read timeout should be omitted")
	}
}

func TestBuildDSNOverHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch.local", Port: 8123, Database: "db", User: "default", UseHTTP: true})
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Scheme != "clickhouse+http" || u.RawQuery != "" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}
