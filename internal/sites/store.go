package sites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Lookup errors surfaced by the store. Callers translate these to "not found"
// outcomes; they are not infrastructure failures.
var (
	ErrNotFound    = errors.New("site not found")
	ErrSiteIDTaken = errors.New("site id already taken")
	ErrDomainTaken = errors.New("custom domain already bound to another site")
)

const siteColumns = `id, site_id, title, content, video_url, status, device_mode,
	custom_domain, visits, target_visits, downloads, created_at, updated_at`

// Store provides access to site records.
type Store struct {
	db *sql.DB
}

// NewStore creates a site store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func scanSite(row interface{ Scan(dest ...any) error }) (*Site, error) {
	var s Site
	err := row.Scan(
		&s.ID, &s.SiteID, &s.Title, &s.Content, &s.VideoURL, &s.Status,
		&s.DeviceMode, &s.CustomDomain, &s.Visits, &s.TargetVisits,
		&s.Downloads, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByID returns the site with the given row id.
func (st *Store) FindByID(ctx context.Context, id int64) (*Site, error) {
	row := st.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1`, id)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find site by id: %w", err)
	}
	return site, nil
}

// FindBySubdomain returns the site owning the given subdomain label.
func (st *Store) FindBySubdomain(ctx context.Context, label string) (*Site, error) {
	row := st.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE site_id = $1`, label)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find site by subdomain: %w", err)
	}
	return site, nil
}

// FindByCustomDomain returns the site bound to the given custom domain.
func (st *Store) FindByCustomDomain(ctx context.Context, domain string) (*Site, error) {
	row := st.db.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE custom_domain = $1`, domain)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find site by custom domain: %w", err)
	}
	return site, nil
}

// List returns all sites ordered by creation time, newest first.
func (st *Store) List(ctx context.Context) ([]Site, error) {
	rows, err := st.db.QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		result = append(result, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return result, nil
}

// Create inserts a new site and fills in its row id. Uniqueness of site_id
// and custom_domain is checked up front so callers get a friendly sentinel;
// the unique indexes remain the final arbiter under concurrent writes.
func (st *Store) Create(ctx context.Context, s *Site) error {
	taken, err := st.siteIDExists(ctx, s.SiteID, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrSiteIDTaken
	}

	if s.Domain() != "" {
		bound, err := st.domainExists(ctx, s.Domain(), 0)
		if err != nil {
			return err
		}
		if bound {
			return ErrDomainTaken
		}
	}

	err = st.db.QueryRowContext(ctx, `
		INSERT INTO sites (site_id, title, content, video_url, status, device_mode, custom_domain)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		s.SiteID, s.Title, s.Content, s.VideoURL, s.Status, s.DeviceMode, s.CustomDomain,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an existing site.
func (st *Store) Update(ctx context.Context, s *Site) error {
	if s.Domain() != "" {
		bound, err := st.domainExists(ctx, s.Domain(), s.ID)
		if err != nil {
			return err
		}
		if bound {
			return ErrDomainTaken
		}
	}

	res, err := st.db.ExecContext(ctx, `
		UPDATE sites
		SET title = $1, content = $2, video_url = $3, status = $4,
		    device_mode = $5, custom_domain = $6, updated_at = NOW()
		WHERE id = $7`,
		s.Title, s.Content, s.VideoURL, s.Status, s.DeviceMode, s.CustomDomain, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a site and returns the deleted record so the caller can
// clean up its stored asset.
func (st *Store) Delete(ctx context.Context, id int64) (*Site, error) {
	row := st.db.QueryRowContext(ctx,
		`DELETE FROM sites WHERE id = $1 RETURNING `+siteColumns, id)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete site: %w", err)
	}
	return site, nil
}

// IncrementCounter bumps one of the visit counters by one. Counter names are
// whitelisted; anything else is rejected before touching the database.
func (st *Store) IncrementCounter(ctx context.Context, id int64, counter string) error {
	switch counter {
	case CounterVisits, CounterTargetVisits, CounterDownloads:
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}

	_, err := st.db.ExecContext(ctx,
		`UPDATE sites SET `+counter+` = `+counter+` + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment %s: %w", counter, err)
	}
	return nil
}

func (st *Store) siteIDExists(ctx context.Context, siteID string, excludeID int64) (bool, error) {
	var exists bool
	err := st.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sites WHERE site_id = $1 AND id <> $2)`,
		siteID, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check site id: %w", err)
	}
	return exists, nil
}

func (st *Store) domainExists(ctx context.Context, domain string, excludeID int64) (bool, error) {
	var exists bool
	err := st.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sites WHERE custom_domain = $1 AND id <> $2)`,
		domain, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check custom domain: %w", err)
	}
	return exists, nil
}
