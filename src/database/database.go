package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/inversure/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateGastosTable()
	migrateIngresosTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS proyectos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		nombre TEXT NOT NULL,
		estado TEXT NOT NULL DEFAULT 'captacion',
		direccion TEXT NOT NULL DEFAULT '',
		precio_compra REAL,
		precio_venta_previsto REAL,
		comision_pct REAL,
		valoracion1 REAL,
		valoracion2 REAL,
		valoracion3 REAL,
		objetivo_captacion REAL,
		capital_captado REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS gastos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		proyecto_id INTEGER NOT NULL,
		fecha TEXT NOT NULL,
		categoria TEXT NOT NULL,
		concepto TEXT NOT NULL DEFAULT '',
		importe REAL NOT NULL DEFAULT 0,
		estado TEXT NOT NULL DEFAULT 'estimado',
		pagado BOOLEAN NOT NULL DEFAULT FALSE,
		documento_id INTEGER,
		imputable_inversores BOOLEAN NOT NULL DEFAULT TRUE,
		observaciones TEXT NOT NULL DEFAULT '',
		FOREIGN KEY(proyecto_id) REFERENCES proyectos(id),
		FOREIGN KEY(documento_id) REFERENCES documentos(id)
	);

	CREATE TABLE IF NOT EXISTS ingresos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		proyecto_id INTEGER NOT NULL,
		fecha TEXT NOT NULL,
		tipo TEXT NOT NULL,
		concepto TEXT NOT NULL DEFAULT '',
		importe REAL NOT NULL DEFAULT 0,
		estado TEXT NOT NULL DEFAULT 'estimado',
		observaciones TEXT NOT NULL DEFAULT '',
		FOREIGN KEY(proyecto_id) REFERENCES proyectos(id)
	);

	CREATE TABLE IF NOT EXISTS documentos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		proyecto_id INTEGER NOT NULL,
		nombre TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(proyecto_id) REFERENCES proyectos(id)
	);

	CREATE TABLE IF NOT EXISTS proyecto_snapshots (
		proyecto_id INTEGER PRIMARY KEY,
		payload TEXT NOT NULL,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(proyecto_id) REFERENCES proyectos(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func tableColumns(table string) (map[string]bool, bool) {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("Table does not exist yet, no migration needed.", "table", table)
			} else {
				stdlog.Printf("Table '%s' does not exist yet, no migration needed.", table)
			}
			return nil, false
		}
		if logger.L != nil {
			logger.L.Error("Error checking for table", "table", table, "error", err)
		} else {
			stdlog.Printf("Error checking for table '%s': %v", table, err)
		}
		return nil, false
	}

	rows, err := DB.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema", "table", table, "error", err)
		} else {
			stdlog.Printf("Error querying table schema for '%s': %v", table, err)
		}
		return nil, false
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "table", table, "error", err)
			} else {
				stdlog.Printf("Error scanning column info for '%s': %v", table, err)
			}
			return nil, false
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "table", table, "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for '%s': %v", table, err)
		}
		return nil, false
	}
	return columnExists, true
}

func addColumn(table, ddl, column string) {
	_, err := DB.Exec("ALTER TABLE " + table + " ADD COLUMN " + ddl)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error adding column", "table", table, "column", column, "error", err)
		} else {
			stdlog.Printf("Error adding '%s' column to '%s' table: %v", column, table, err)
		}
	} else {
		if logger.L != nil {
			logger.L.Info("Added column", "table", table, "column", column)
		} else {
			stdlog.Printf("Added '%s' column to '%s' table", column, table)
		}
	}
}

// Early ledgers tracked expenses without a payment flag or an invoice
// reference. New columns are added in place when missing.
func migrateGastosTable() {
	columnExists, ok := tableColumns("gastos")
	if !ok {
		return
	}

	if _, ok := columnExists["pagado"]; !ok {
		addColumn("gastos", "pagado BOOLEAN NOT NULL DEFAULT FALSE", "pagado")
	}
	if _, ok := columnExists["documento_id"]; !ok {
		addColumn("gastos", "documento_id INTEGER", "documento_id")
	}
	if _, ok := columnExists["imputable_inversores"]; !ok {
		addColumn("gastos", "imputable_inversores BOOLEAN NOT NULL DEFAULT TRUE", "imputable_inversores")
	}
	if _, ok := columnExists["observaciones"]; !ok {
		addColumn("gastos", "observaciones TEXT NOT NULL DEFAULT ''", "observaciones")
	}
}

// Income lines gained an estimate/confirm state after expenses did.
func migrateIngresosTable() {
	columnExists, ok := tableColumns("ingresos")
	if !ok {
		return
	}

	if _, ok := columnExists["estado"]; !ok {
		addColumn("ingresos", "estado TEXT NOT NULL DEFAULT 'confirmado'", "estado")
		// Rows that predate the state column were all real movements.
	}
	if _, ok := columnExists["observaciones"]; !ok {
		addColumn("ingresos", "observaciones TEXT NOT NULL DEFAULT ''", "observaciones")
	}
}
