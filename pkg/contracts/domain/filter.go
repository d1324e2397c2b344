package domain

// Filter selects papers. Empty Sources or Statuses match nothing.
type Filter struct {
	Sources     []string `json:"sources" validate:"dive,max=200"`
	Statuses    []string `json:"statuses" validate:"dive,max=200"`
	AuthorQuery string   `json:"author_query,omitempty" validate:"max=200"`
	TitleQuery  string   `json:"title_query,omitempty" validate:"max=200"`
}

// AuthorSort selects the ranking used for author listings
type AuthorSort string

const (
	AuthorSortPapers AuthorSort = "papers"
	AuthorSortAmount AuthorSort = "amount"
)
