package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const companyColumns = `id, name, website, address, email, pricing,
founded_year, funding_stage, fundings_total, employee_qty, founders,
categories, score, created_at, updated_at`

func scanCompany(row interface{ Scan(...interface{}) error }) (Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Website, &c.Address, &c.Email, &c.Pricing,
		&c.FoundedYear, &c.FundingStage, &c.FundingsTotal, &c.EmployeeQty,
		&c.Founders, &c.Categories, &c.Score, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (q *Queries) GetCompanyByName(ctx context.Context, name string) (Company, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE lower(name) = lower(?)`,
		name,
	)
	return scanCompany(row)
}

func (q *Queries) GetCompanyByWebsite(ctx context.Context, website string) (Company, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE website = ?`,
		website,
	)
	return scanCompany(row)
}

// SearchCompanyByWebsite matches companies whose stored website
// contains the given fragment, for lookups where scheme or path
// decorations differ.
func (q *Queries) SearchCompanyByWebsite(ctx context.Context, fragment string) (Company, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies
WHERE website != '' AND website LIKE '%' || ? || '%' LIMIT 1`,
		fragment,
	)
	return scanCompany(row)
}

func (q *Queries) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// ListCompaniesForEnrichment returns companies that have a website to
// scrape a profile from.
func (q *Queries) ListCompaniesForEnrichment(ctx context.Context) ([]Company, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE website != '' ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

type CreateCompanyParams struct {
	Name      string
	Website   string
	CreatedAt int64
}

func (q *Queries) CreateCompany(ctx context.Context, params CreateCompanyParams) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO companies (name, website, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		params.Name, params.Website, params.CreatedAt, params.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

type UpdateCompanyProfileParams struct {
	ID            int64
	Address       string
	FoundedYear   int64
	FundingStage  string
	FundingsTotal float64
	EmployeeQty   int64
	Categories    string
	UpdatedAt     int64
}

// UpdateCompanyProfile writes the merged profile fields. name, website
// and score are deliberately not touched here.
func (q *Queries) UpdateCompanyProfile(ctx context.Context, params UpdateCompanyProfileParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE companies SET
address = ?, founded_year = ?, funding_stage = ?, fundings_total = ?,
employee_qty = ?, categories = ?, updated_at = ?
WHERE id = ?`,
		params.Address, params.FoundedYear, params.FundingStage,
		params.FundingsTotal, params.EmployeeQty, params.Categories,
		params.UpdatedAt, params.ID,
	)
	return err
}

type NewsExistsParams struct {
	CompanyID int64
	Title     string
	Link      string
}

// NewsExists reports whether a news record with the same title or the
// same link already exists for the company.
func (q *Queries) NewsExists(ctx context.Context, params NewsExistsParams) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM news
WHERE company_id = ? AND (title = ? OR (? != '' AND link = ?))`,
		params.CompanyID, params.Title, params.Link, params.Link,
	).Scan(&count)
	return count > 0, err
}

type CreateNewsParams struct {
	CompanyID       int64
	Title           string
	Date            string
	Link            string
	Analysis        string
	ImportanceGrade int64
	Sentiment       string
	CreatedAt       int64
}

func (q *Queries) CreateNews(ctx context.Context, params CreateNewsParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO news
(company_id, title, date, link, analysis, importance_grade, sentiment, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.CompanyID, params.Title, params.Date, params.Link,
		params.Analysis, params.ImportanceGrade, params.Sentiment,
		params.CreatedAt, params.CreatedAt,
	)
	return err
}

const newsColumns = `id, company_id, title, date, link, analysis,
importance_grade, sentiment, created_at, updated_at`

func scanNewsRows(rows *sql.Rows) ([]News, error) {
	defer rows.Close()
	var items []News
	for rows.Next() {
		var n News
		err := rows.Scan(
			&n.ID, &n.CompanyID, &n.Title, &n.Date, &n.Link, &n.Analysis,
			&n.ImportanceGrade, &n.Sentiment, &n.CreatedAt, &n.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

type RecentNewsParams struct {
	// Cutoff is the earliest date to include, YYYY-MM-DD.
	Cutoff string
	Limit  int64
}

func (q *Queries) RecentNews(ctx context.Context, params RecentNewsParams) ([]News, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM news
WHERE date >= ? ORDER BY date DESC, importance_grade DESC LIMIT ?`,
		params.Cutoff, params.Limit,
	)
	if err != nil {
		return nil, err
	}
	return scanNewsRows(rows)
}

type RecentNewsForCompanyParams struct {
	CompanyID int64
	Cutoff    string
	Limit     int64
}

func (q *Queries) RecentNewsForCompany(ctx context.Context, params RecentNewsForCompanyParams) ([]News, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM news
WHERE company_id = ? AND date >= ?
ORDER BY date DESC, importance_grade DESC LIMIT ?`,
		params.CompanyID, params.Cutoff, params.Limit,
	)
	if err != nil {
		return nil, err
	}
	return scanNewsRows(rows)
}

type NewsStatsRow struct {
	Total        int64
	Companies    int64
	AverageGrade float64
}

func (q *Queries) NewsStats(ctx context.Context) (NewsStatsRow, error) {
	var stats NewsStatsRow
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT company_id), COALESCE(AVG(importance_grade), 0) FROM news`,
	).Scan(&stats.Total, &stats.Companies, &stats.AverageGrade)
	return stats, err
}
