package migrations

import (
	"errors"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	sql := `-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (s String DEFAULT 'it''s') ENGINE = Memory;
`
	stmts, err := splitStatements(sql)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x UInt8) ENGINE = Memory" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitStatements_RejectsQuotedSemicolon(t *testing.T) {
	_, err := splitStatements("SELECT 'a;b';")
	if !errors.Is(err, errQuotedSemicolon) {
		t.Errorf("expected errQuotedSemicolon, got %v", err)
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/x402")
	if err != nil || db != "x402" {
		t.Errorf("got %q, %v", db, err)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	if err != nil || len(pg) == 0 {
		t.Fatalf("postgres migrations: %d, %v", len(pg), err)
	}
	ch, err := load(ClickhouseFS, "clickhouse")
	if err != nil || len(ch) == 0 {
		t.Fatalf("clickhouse migrations: %d, %v", len(ch), err)
	}
	for _, m := range ch {
		if _, err := splitStatements(m.sql); err != nil {
			t.Errorf("%s: %v", m.name, err)
		}
	}
}

func TestPostgresScripts_Ordered(t *testing.T) {
	scripts, err := PostgresScripts()
	if err != nil {
		t.Fatal(err)
	}
	if len(scripts) == 0 {
		t.Fatal("expected at least one postgres script")
	}
	if scripts[0].Name != "001_simulation_runs.sql" {
		t.Errorf("first script = %q", scripts[0].Name)
	}
	for i := 1; i < len(scripts); i++ {
		if scripts[i-1].Name >= scripts[i].Name {
			t.Errorf("scripts out of order: %q before %q", scripts[i-1].Name, scripts[i].Name)
		}
	}
}
