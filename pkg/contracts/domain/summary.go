package domain

// AuthorStat accumulates one author's contributions
type AuthorStat struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Papers      int     `json:"papers"`
	TotalAmount float64 `json:"total_amount"`
}

// PipelineStage is one step of the publication funnel
type PipelineStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// Summary holds the KPI rollups over a set of papers
type Summary struct {
	TotalPapers          int                       `json:"total_papers"`
	UniqueAuthorCount    int                       `json:"unique_author_count"`
	StatusCounts         map[string]int            `json:"status_counts"`
	TotalAmountSum       float64                   `json:"total_amount_sum"`
	TotalPaidSum         float64                   `json:"total_paid_sum"`
	BalanceSum           float64                   `json:"balance_sum"`
	AvgAuthorsPerPaper   float64                   `json:"avg_authors_per_paper"`
	CollectionRate       float64                   `json:"collection_rate"`
	TeamSizeDistribution map[int]int               `json:"team_size_distribution"`
	PaymentStageTotals   [PaymentStages]float64    `json:"payment_stage_totals"`
	SourceStatusCounts   map[string]map[string]int `json:"source_status_counts"`
	Pipeline             []PipelineStage           `json:"pipeline"`
	AuthorStats          map[string]AuthorStat     `json:"-"`
}

// RosterStats summarizes the client roster table
type RosterStats struct {
	TotalClients int `json:"total_clients"`
	WithPapers   int `json:"with_papers"`
	WithPatents  int `json:"with_patents"`
}

// Facets lists the distinct values available to filters
type Facets struct {
	Sources  []string `json:"sources"`
	Statuses []string `json:"statuses"`
}
