package database

// Migrations is the ordered list of schema migrations. The UNIQUE
// constraint on (vendor_id, period_start, period_end) is the
// serialization point for statement ingestion: a concurrent duplicate
// import fails at commit instead of creating a second row.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
CREATE TABLE vendor_statements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	vendor_id INTEGER NOT NULL,
	venue_id INTEGER NOT NULL,
	statement_number TEXT NOT NULL DEFAULT '',
	period_start DATE NOT NULL,
	period_end DATE NOT NULL,
	declared_total TEXT NOT NULL,
	imported_by TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (vendor_id, period_start, period_end)
);

CREATE TABLE statement_lines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	statement_id INTEGER NOT NULL REFERENCES vendor_statements(id),
	line_number INTEGER NOT NULL,
	line_date DATE NOT NULL,
	invoice_number TEXT NOT NULL DEFAULT '',
	reference_number TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	amount TEXT NOT NULL,
	is_ignored INTEGER NOT NULL DEFAULT 0,
	assist_pending INTEGER NOT NULL DEFAULT 0,
	match_status TEXT NOT NULL DEFAULT 'unmatched',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (statement_id, line_number)
);

CREATE INDEX idx_statement_lines_statement ON statement_lines(statement_id);

CREATE TABLE match_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	line_id INTEGER NOT NULL REFERENCES statement_lines(id),
	invoice_id INTEGER,
	combined_score REAL NOT NULL DEFAULT 0,
	decision TEXT NOT NULL,
	decided_by TEXT NOT NULL,
	rationale TEXT NOT NULL DEFAULT '',
	superseded INTEGER NOT NULL DEFAULT 0,
	decided_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_match_results_line ON match_results(line_id);

CREATE TABLE invoices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_id INTEGER NOT NULL,
	invoice_number TEXT NOT NULL DEFAULT '',
	invoice_date DATE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	total_amount TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_invoices_vendor_date ON invoices(vendor_id, invoice_date);
`,
	},
}
