package repository

import "github.com/okian/gwrank/internal/domain/pattern"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rankings (
	gw_num  INTEGER NOT NULL,
	id      INTEGER NOT NULL,
	name    TEXT    NOT NULL,
	rank    INTEGER NOT NULL,
	points  INTEGER,
	is_seed INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (gw_num, id)
);
CREATE INDEX IF NOT EXISTS rankings_id_gw ON rankings (id, gw_num DESC);
CREATE INDEX IF NOT EXISTS rankings_name ON rankings (name);
CREATE VIEW IF NOT EXISTS cur_gw AS
	SELECT id FROM rankings WHERE gw_num = (SELECT MAX(gw_num) FROM rankings);
`

const entryColumns = `gw_num, is_seed, name, rank, points, id`

const (
	rangeQuery = `SELECT MIN(gw_num), MAX(gw_num) FROM rankings`

	searchQuery = `SELECT ` + entryColumns + ` FROM rankings
		WHERE id IN (SELECT id FROM cur_gw
			WHERE id IN (SELECT DISTINCT id FROM rankings WHERE name LIKE ? ESCAPE '` + pattern.EscapeChar + `'))
		ORDER BY id, gw_num DESC`

	historyQuery = `SELECT ` + entryColumns + ` FROM rankings WHERE id = ? ORDER BY gw_num DESC`

	eventQuery = `SELECT ` + entryColumns + ` FROM rankings WHERE gw_num = ? ORDER BY is_seed DESC, rank`

	upsertQuery = `INSERT OR REPLACE INTO rankings (gw_num, rank, name, points, id, is_seed) VALUES (?, ?, ?, ?, ?, ?)`

	statsQuery = `SELECT COUNT(*), (SELECT COUNT(*) FROM cur_gw), MIN(gw_num), MAX(gw_num) FROM rankings`

	backupQuery = `VACUUM INTO ?`
)
