package sqlstore

// migration is one schema step; statements run in order inside a transaction.
type migration struct {
	version    int
	statements []string
}

var sqliteMigrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
	email      TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	owner_email TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT,
	icon        TEXT NOT NULL,
	color       TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	owner_email TEXT NOT NULL,
	title       TEXT NOT NULL,
	completed   INTEGER NOT NULL DEFAULT 0,
	notes       TEXT,
	due_date    TEXT,
	due_time    TEXT,
	assigned_to TEXT,
	priority    TEXT,
	archived    INTEGER NOT NULL DEFAULT 0,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_categories_owner ON categories(owner_email)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_owner_category ON tasks(owner_email, category_id)`,
		},
	},
}

var postgresMigrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
	email      TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	owner_email TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT,
	icon        TEXT NOT NULL,
	color       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	owner_email TEXT NOT NULL,
	title       TEXT NOT NULL,
	completed   BOOLEAN NOT NULL DEFAULT FALSE,
	notes       TEXT,
	due_date    TEXT,
	due_time    TEXT,
	assigned_to TEXT,
	priority    TEXT,
	archived    BOOLEAN NOT NULL DEFAULT FALSE,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_categories_owner ON categories(owner_email)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_owner_category ON tasks(owner_email, category_id)`,
		},
	},
}
