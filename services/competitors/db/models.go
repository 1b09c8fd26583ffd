package db

type Company struct {
	ID           int64
	Name         string
	Website      string
	Address      string
	Email        string
	Pricing      string
	FoundedYear  int64
	FundingStage string
	// FundingsTotal is the aggregate raised amount in dollars.
	FundingsTotal float64
	EmployeeQty   int64
	Founders      string
	// Categories is a json-encoded array of category names.
	Categories string
	Score      int64
	CreatedAt  int64
	UpdatedAt  int64
}

type News struct {
	ID        int64
	CompanyID int64
	Title     string
	// Date is the publication date in YYYY-MM-DD form.
	Date            string
	Link            string
	Analysis        string
	ImportanceGrade int64
	Sentiment       string
	CreatedAt       int64
	UpdatedAt       int64
}
