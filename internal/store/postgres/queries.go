package postgres

import (
	"fmt"

	"github.com/JonMunkholm/marketshare/internal/store"
)

func schemaStatements() []string {
	table := store.QuoteIdentifier(store.TableName)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			tahun INTEGER NOT NULL,
			bulan TEXT NOT NULL,
			nbulan INTEGER NOT NULL,
			daerah TEXT NOT NULL,
			pulau TEXT NOT NULL,
			produsen TEXT NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			kemasan TEXT NOT NULL,
			negara TEXT NOT NULL,
			holding TEXT NOT NULL,
			merk TEXT NOT NULL,
			segment TEXT,
			area_ap TEXT
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (tahun, nbulan)`,
			store.QuoteIdentifier(store.TableName+"_period_idx"), table),
	}
}

func selectQuery() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY id",
		store.QuotedColumns(), store.QuoteIdentifier(store.TableName))
}

func deleteQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE tahun = $1 AND nbulan = $2",
		store.QuoteIdentifier(store.TableName))
}
