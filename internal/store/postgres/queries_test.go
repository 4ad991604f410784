package postgres

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/marketshare/internal/store"
)

func TestSelectQuery(t *testing.T) {
	q := selectQuery()
	want := `SELECT "tahun", "bulan", "nbulan", "daerah", "pulau", "produsen", "total", ` +
		`"kemasan", "negara", "holding", "merk", "segment", "area_ap" ` +
		`FROM "market_share_history" ORDER BY id`
	if q != want {
		t.Errorf("selectQuery() =\n%s\nwant\n%s", q, want)
	}
}

func TestDeleteQuery(t *testing.T) {
	want := `DELETE FROM "market_share_history" WHERE tahun = $1 AND nbulan = $2`
	if got := deleteQuery(); got != want {
		t.Errorf("deleteQuery() = %s, want %s", got, want)
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements()
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(stmts))
	}
	for _, c := range store.ColumnNames() {
		if !strings.Contains(stmts[0], "\n\t\t\t"+c+" ") {
			t.Errorf("CREATE TABLE is missing column %s", c)
		}
	}
	if !strings.Contains(stmts[1], "(tahun, nbulan)") {
		t.Errorf("index statement = %s", stmts[1])
	}
}

func TestDriverRegistered(t *testing.T) {
	found := false
	for _, d := range store.Drivers() {
		if d == Driver {
			found = true
		}
	}
	if !found {
		t.Errorf("driver %q not registered, have %v", Driver, store.Drivers())
	}
}
