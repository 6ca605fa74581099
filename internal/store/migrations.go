package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Bindings table - ordered (handedness, gesture prefix) -> action rows
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			handedness TEXT NOT NULL CHECK(handedness IN ('left', 'right')),
			gesture TEXT NOT NULL,
			kind TEXT NOT NULL,
			params TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bindings_position ON bindings(position)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
