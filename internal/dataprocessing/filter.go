package dataprocessing

import (
	"sort"
	"strings"

	"papertrack/pkg/contracts/domain"
)

// FilterPapers returns the papers matching every predicate of f, in input order.
// An empty Sources or Statuses set matches nothing. The input slice is not modified.
func FilterPapers(papers []domain.Paper, f domain.Filter) []domain.Paper {
	sources := toSet(f.Sources)
	statuses := toSet(f.Statuses)
	author := strings.ToLower(f.AuthorQuery)
	title := strings.ToLower(f.TitleQuery)

	out := make([]domain.Paper, 0, len(papers))
	for _, p := range papers {
		if !sources[p.Source] || !statuses[p.Status.Label()] {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(p.AuthorNames()), author) {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(p.Title), title) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AllFilter selects every paper in papers
func AllFilter(papers []domain.Paper) domain.Filter {
	return domain.Filter{
		Sources:  DistinctSources(papers),
		Statuses: DistinctStatuses(papers),
	}
}

// DistinctSources lists the sheet names present, sorted
func DistinctSources(papers []domain.Paper) []string {
	return distinct(papers, func(p domain.Paper) string { return p.Source })
}

// DistinctStatuses lists the status labels present, sorted
func DistinctStatuses(papers []domain.Paper) []string {
	return distinct(papers, func(p domain.Paper) string { return p.Status.Label() })
}

// Facets returns the filter choices for papers
func Facets(papers []domain.Paper) domain.Facets {
	return domain.Facets{
		Sources:  DistinctSources(papers),
		Statuses: DistinctStatuses(papers),
	}
}

func distinct(papers []domain.Paper, key func(domain.Paper) string) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, p := range papers {
		k := key(p)
		if !seen[k] {
			seen[k] = true
			values = append(values, k)
		}
	}
	sort.Strings(values)
	return values
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
