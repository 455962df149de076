package driver

import (
	"database/sql"
	"testing"
	"time"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestQueryRoundTrip(t *testing.T) {
	db := openDB(t)
	if _, err := db.Exec("CREATE TABLE users (id INTEGER, name TEXT, score REAL)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	res, err := db.Exec("INSERT INTO users VALUES (?, ?, ?), (?, ?, ?)",
		1, "alice", 9.5, 2, "bob", 7.25)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 2 {
		t.Fatalf("affected = %d, %v; want 2", n, err)
	}

	rows, err := db.Query("SELECT id, name, score FROM users WHERE score > ? ORDER BY id", 5.0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var got []string
	for rows.Next() {
		var id int64
		var name string
		var score float64
		if err := rows.Scan(&id, &name, &score); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("names = %v, want [alice bob]", got)
	}
}

func TestNullScan(t *testing.T) {
	db := openDB(t)
	if _, err := db.Exec("CREATE TABLE t (v TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t VALUES (?)", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var v sql.NullString
	if err := db.QueryRow("SELECT v FROM t").Scan(&v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if v.Valid {
		t.Errorf("scanned %q, want NULL", v.String)
	}
}

func TestNamedValueNormalization(t *testing.T) {
	db := openDB(t)
	if _, err := db.Exec("CREATE TABLE t (stamp TEXT, blob TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	at := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	if _, err := db.Exec("INSERT INTO t VALUES (?, ?)", at, []byte("raw")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var stamp, blob string
	if err := db.QueryRow("SELECT stamp, blob FROM t").Scan(&stamp, &blob); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stamp != "2024-06-01 12:30:00" {
		t.Errorf("stamp = %q", stamp)
	}
	if blob != "raw" {
		t.Errorf("blob = %q", blob)
	}
}

func TestTransactionRollback(t *testing.T) {
	db := openDB(t)
	if _, err := db.Exec("CREATE TABLE t (n INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO t VALUES (1)"); err != nil {
		t.Fatalf("insert in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT count(*) FROM t").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d after rollback, want 0", n)
	}

	tx, err = db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO t VALUES (2)"); err != nil {
		t.Fatalf("insert in tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := db.QueryRow("SELECT count(*) FROM t").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d after commit, want 1", n)
	}
}

func TestPreparedStatement(t *testing.T) {
	db := openDB(t)
	if _, err := db.Exec("CREATE TABLE t (n INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	st, err := db.Prepare("INSERT INTO t VALUES (?)")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer st.Close()
	for i := 1; i <= 3; i++ {
		if _, err := st.Exec(i); err != nil {
			t.Fatalf("exec %d: %v", i, err)
		}
	}
	var sum int
	if err := db.QueryRow("SELECT sum(n) FROM t").Scan(&sum); err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 6 {
		t.Errorf("sum = %d, want 6", sum)
	}
}

func TestQueryError(t *testing.T) {
	db := openDB(t)
	if _, err := db.Query("SELECT * FROM nowhere"); err == nil {
		t.Fatal("query against missing table succeeded")
	}
}
