// Package database opens the SQLite file that holds the event journal and
// the audit trail, and applies the embedded schema migrations.
//
// Connections are pinned to one writer; WAL mode lets readers proceed
// during an append. Every table is declared STRICT.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and
// are registered by the migrations package through MigrationsFS. Schema
// changes are additive: new columns must be nullable or carry a default.
package database
