package store

import (
	"database/sql"
	"fmt"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// RepoStoreImpl implements the repo registry on a SQL backend.
type RepoStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RepoStore = &RepoStoreImpl{} // Compile-time check

// ImportPortfolio upserts every repo from a portfolio document. Metadata
// columns are refreshed on conflict but the active flag is left alone so a
// re-import never reactivates repos that were deliberately deactivated.
func (rs *RepoStoreImpl) ImportPortfolio(repos []schema.RepoRef) (int, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return len(repos), nil
	}

	query := rs.getUpsertQuery()
	count := 0
	for _, repo := range repos {
		if repo.Owner == "" || repo.Name == "" {
			return count, fmt.Errorf("portfolio entry %q is missing owner or name", repo.URL)
		}
		if _, err := rs.db.Exec(query, repo.Owner, repo.Name, repo.URL, repo.DevOwner, repo.Team); err != nil {
			return count, fmt.Errorf("failed to import %s: %w", repo.Slug(), err)
		}
		count++
	}
	return count, nil
}

// AddRepo inserts a single repo, leaving an existing row untouched.
func (rs *RepoStoreImpl) AddRepo(repo schema.RepoRef) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}
	if repo.Owner == "" || repo.Name == "" {
		return fmt.Errorf("repo is missing owner or name")
	}

	var query string
	switch rs.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT IGNORE INTO %s (owner, name, url, dev_owner, team, active) VALUES (?, ?, ?, ?, ?, 1)`, reposTable)
	case schema.PostgreSQLBackend:
		query = rebind(rs.backend, fmt.Sprintf(`INSERT INTO %s (owner, name, url, dev_owner, team, active) VALUES (?, ?, ?, ?, ?, 1)
			ON CONFLICT (owner, name) DO NOTHING`, reposTable))
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR IGNORE INTO %s (owner, name, url, dev_owner, team, active) VALUES (?, ?, ?, ?, ?, 1)`, reposTable)
	}

	if _, err := rs.db.Exec(query, repo.Owner, repo.Name, repo.URL, repo.DevOwner, repo.Team); err != nil {
		return fmt.Errorf("failed to add %s: %w", repo.Slug(), err)
	}
	return nil
}

// ListRepos returns tracked repos ordered by owner then name.
func (rs *RepoStoreImpl) ListRepos(activeOnly bool) ([]schema.RepoRef, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT owner, name, url, dev_owner, team, active FROM %s`, reposTable)
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY owner, name"

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list repos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repos []schema.RepoRef
	for rows.Next() {
		var repo schema.RepoRef
		var url, devOwner, team sql.NullString
		var active int
		if err := rows.Scan(&repo.Owner, &repo.Name, &url, &devOwner, &team, &active); err != nil {
			return nil, fmt.Errorf("failed to scan repo row: %w", err)
		}
		repo.URL = url.String
		repo.DevOwner = devOwner.String
		repo.Team = team.String
		repo.Active = active != 0
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repos: %w", err)
	}
	return repos, nil
}

// getUpsertQuery returns the metadata-refreshing upsert for the backend.
func (rs *RepoStoreImpl) getUpsertQuery() string {
	switch rs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (owner, name, url, dev_owner, team, active) VALUES (?, ?, ?, ?, ?, 1) AS new
			ON DUPLICATE KEY UPDATE url = new.url, dev_owner = new.dev_owner, team = new.team`, reposTable)

	case schema.PostgreSQLBackend:
		return rebind(rs.backend, fmt.Sprintf(`INSERT INTO %s (owner, name, url, dev_owner, team, active) VALUES (?, ?, ?, ?, ?, 1)
			ON CONFLICT (owner, name) DO UPDATE SET url = EXCLUDED.url, dev_owner = EXCLUDED.dev_owner, team = EXCLUDED.team`, reposTable))

	default: // SQLite
		return fmt.Sprintf(`INSERT INTO %s (owner, name, url, dev_owner, team, active) VALUES (?, ?, ?, ?, ?, 1)
			ON CONFLICT (owner, name) DO UPDATE SET url = EXCLUDED.url, dev_owner = EXCLUDED.dev_owner, team = EXCLUDED.team`, reposTable)
	}
}
