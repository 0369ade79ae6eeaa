package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cindral/core/internal/models"
)

// Fetch reads the tenant's full system map dataset. Counts and the
// denormalized regulation name are derived at read time.
func (s *DB) Fetch(ctx context.Context, tenantID string) (*models.SystemMapData, error) {
	data := &models.SystemMapData{
		Regulations: []models.Regulation{},
		Articles:    []models.Article{},
		Systems:     []models.System{},
		Impacts:     []models.Impact{},
	}

	if err := s.fetchRegulations(ctx, tenantID, data); err != nil {
		return nil, err
	}
	if err := s.fetchArticles(ctx, tenantID, data); err != nil {
		return nil, err
	}
	if err := s.fetchSystems(ctx, tenantID, data); err != nil {
		return nil, err
	}
	if err := s.fetchImpacts(ctx, tenantID, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *DB) fetchRegulations(ctx context.Context, tenantID string, data *models.SystemMapData) error {
	rows, err := s.query(ctx, `
		SELECT r.id, r.name, r.framework, r.status,
			(SELECT COUNT(*) FROM articles a WHERE a.organization_id = r.organization_id AND a.regulation_id = r.id)
		FROM regulations r
		WHERE r.organization_id = ?
		ORDER BY r.name, r.id`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to query regulations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var reg models.Regulation
		var status string
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.Framework, &status, &reg.ArticleCount); err != nil {
			return fmt.Errorf("failed to scan regulation: %w", err)
		}
		reg.Status = models.RegulationStatus(status)
		data.Regulations = append(data.Regulations, reg)
	}
	return rows.Err()
}

func (s *DB) fetchArticles(ctx context.Context, tenantID string, data *models.SystemMapData) error {
	rows, err := s.query(ctx, `
		SELECT a.id, a.article_number, a.title, a.regulation_id, COALESCE(r.name, ''),
			(SELECT COUNT(*) FROM impacts i WHERE i.organization_id = a.organization_id AND i.article_id = a.id)
		FROM articles a
		LEFT JOIN regulations r ON r.organization_id = a.organization_id AND r.id = a.regulation_id
		WHERE a.organization_id = ?
		ORDER BY a.regulation_id, a.article_number, a.id`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to query articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var art models.Article
		var title sql.NullString
		if err := rows.Scan(&art.ID, &art.ArticleNumber, &title, &art.RegulationID, &art.RegulationName, &art.ImpactedSystemsCount); err != nil {
			return fmt.Errorf("failed to scan article: %w", err)
		}
		art.Title = stringPtr(title)
		data.Articles = append(data.Articles, art)
	}
	return rows.Err()
}

func (s *DB) fetchSystems(ctx context.Context, tenantID string, data *models.SystemMapData) error {
	rows, err := s.query(ctx, `
		SELECT id, name, category, criticality
		FROM systems
		WHERE organization_id = ?
		ORDER BY name, id`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to query systems: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var sys models.System
		var category, criticality sql.NullString
		if err := rows.Scan(&sys.ID, &sys.Name, &category, &criticality); err != nil {
			return fmt.Errorf("failed to scan system: %w", err)
		}
		sys.Category = stringPtr(category)
		sys.Criticality = stringPtr(criticality)
		data.Systems = append(data.Systems, sys)
	}
	return rows.Err()
}

func (s *DB) fetchImpacts(ctx context.Context, tenantID string, data *models.SystemMapData) error {
	rows, err := s.query(ctx, `
		SELECT article_id, system_id, impact_level, notes
		FROM impacts
		WHERE organization_id = ?
		ORDER BY article_id, system_id`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to query impacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var imp models.Impact
		var level string
		var notes sql.NullString
		if err := rows.Scan(&imp.ArticleID, &imp.SystemID, &level, &notes); err != nil {
			return fmt.Errorf("failed to scan impact: %w", err)
		}
		imp.ImpactLevel = models.ImpactLevel(level)
		imp.Notes = stringPtr(notes)
		data.Impacts = append(data.Impacts, imp)
	}
	return rows.Err()
}

// CreateImpact inserts the impact or, when the pair already exists, updates
// it in place.
func (s *DB) CreateImpact(ctx context.Context, tenantID string, imp models.Impact) error {
	if err := s.checkImpactRefs(ctx, tenantID, imp); err != nil {
		return err
	}

	_, err := s.exec(ctx, `
		INSERT INTO impacts (organization_id, article_id, system_id, impact_level, notes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (organization_id, article_id, system_id) DO UPDATE SET
			impact_level = excluded.impact_level,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		tenantID, imp.ArticleID, imp.SystemID, string(imp.ImpactLevel), nullString(imp.Notes), s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to upsert impact: %w", err)
	}
	return nil
}

// UpdateImpact changes an existing impact; a missing pair is ErrNotFound.
func (s *DB) UpdateImpact(ctx context.Context, tenantID string, imp models.Impact) error {
	res, err := s.exec(ctx, `
		UPDATE impacts SET impact_level = ?, notes = ?, updated_at = ?
		WHERE organization_id = ? AND article_id = ? AND system_id = ?`,
		string(imp.ImpactLevel), nullString(imp.Notes), s.timestamp(), tenantID, imp.ArticleID, imp.SystemID)
	if err != nil {
		return fmt.Errorf("failed to update impact: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update impact: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("impact %s/%s: %w", imp.ArticleID, imp.SystemID, models.ErrNotFound)
	}
	return nil
}

// DeleteImpact removes the pair. Deleting a missing pair succeeds.
func (s *DB) DeleteImpact(ctx context.Context, tenantID, articleID, systemID string) error {
	_, err := s.exec(ctx, `
		DELETE FROM impacts
		WHERE organization_id = ? AND article_id = ? AND system_id = ?`,
		tenantID, articleID, systemID)
	if err != nil {
		return fmt.Errorf("failed to delete impact: %w", err)
	}
	return nil
}

func (s *DB) checkImpactRefs(ctx context.Context, tenantID string, imp models.Impact) error {
	var articles, systems int
	err := s.queryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM articles WHERE organization_id = ? AND id = ?),
			(SELECT COUNT(*) FROM systems WHERE organization_id = ? AND id = ?)`,
		tenantID, imp.ArticleID, tenantID, imp.SystemID).Scan(&articles, &systems)
	if err != nil {
		return fmt.Errorf("failed to check impact references: %w", err)
	}
	if articles == 0 {
		return fmt.Errorf("unknown article %q: %w", imp.ArticleID, models.ErrInvalid)
	}
	if systems == 0 {
		return fmt.Errorf("unknown system %q: %w", imp.SystemID, models.ErrInvalid)
	}
	return nil
}

// ImportDataset upserts every entity of data for the tenant in one transaction.
// Counts in data are ignored; they are derived on read.
func (s *DB) ImportDataset(ctx context.Context, tenantID string, data *models.SystemMapData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, s.dialect.rebind(query), args...)
		return err
	}

	for _, reg := range data.Regulations {
		if err := exec(`
			INSERT INTO regulations (organization_id, id, name, framework, status) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (organization_id, id) DO UPDATE SET
				name = excluded.name, framework = excluded.framework, status = excluded.status`,
			tenantID, reg.ID, reg.Name, reg.Framework, string(reg.Status)); err != nil {
			return fmt.Errorf("failed to import regulation %s: %w", reg.ID, err)
		}
	}

	for _, art := range data.Articles {
		if err := exec(`
			INSERT INTO articles (organization_id, id, article_number, title, regulation_id) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (organization_id, id) DO UPDATE SET
				article_number = excluded.article_number, title = excluded.title, regulation_id = excluded.regulation_id`,
			tenantID, art.ID, art.ArticleNumber, nullString(art.Title), art.RegulationID); err != nil {
			return fmt.Errorf("failed to import article %s: %w", art.ID, err)
		}
	}

	for _, sys := range data.Systems {
		if err := exec(`
			INSERT INTO systems (organization_id, id, name, category, criticality) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (organization_id, id) DO UPDATE SET
				name = excluded.name, category = excluded.category, criticality = excluded.criticality`,
			tenantID, sys.ID, sys.Name, nullString(sys.Category), nullString(sys.Criticality)); err != nil {
			return fmt.Errorf("failed to import system %s: %w", sys.ID, err)
		}
	}

	now := s.timestamp()
	for _, imp := range data.Impacts {
		if err := exec(`
			INSERT INTO impacts (organization_id, article_id, system_id, impact_level, notes, updated_at) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (organization_id, article_id, system_id) DO UPDATE SET
				impact_level = excluded.impact_level, notes = excluded.notes, updated_at = excluded.updated_at`,
			tenantID, imp.ArticleID, imp.SystemID, string(imp.ImpactLevel), nullString(imp.Notes), now); err != nil {
			return fmt.Errorf("failed to import impact %s/%s: %w", imp.ArticleID, imp.SystemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}
