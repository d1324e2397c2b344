package dataprocessing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"papertrack/pkg/contracts/domain"
)

// pipelineStages is the publication funnel, earliest stage first
var pipelineStages = []domain.StatusKind{
	domain.StatusCommunicatedToReviewer,
	domain.StatusUnderReview,
	domain.StatusAccepted,
	domain.StatusPublished,
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

type authorAcc struct {
	name   string
	papers int
	amount decimal.Decimal
}

// Summarize computes the KPI rollups over papers. It is pure: the same input
// always yields the same summary.
func Summarize(papers []domain.Paper) domain.Summary {
	s := domain.Summary{
		TotalPapers:          len(papers),
		StatusCounts:         make(map[string]int),
		TeamSizeDistribution: make(map[int]int),
		SourceStatusCounts:   make(map[string]map[string]int),
		AuthorStats:          make(map[string]domain.AuthorStat),
	}

	var amount, paid, balance decimal.Decimal
	var stages [domain.PaymentStages]decimal.Decimal
	kindCounts := make(map[domain.StatusKind]int)
	authors := make(map[string]*authorAcc)
	authorSlots := 0

	for _, p := range papers {
		label := p.Status.Label()
		s.StatusCounts[label]++
		kindCounts[p.Status.Kind]++

		bySource, ok := s.SourceStatusCounts[p.Source]
		if !ok {
			bySource = make(map[string]int)
			s.SourceStatusCounts[p.Source] = bySource
		}
		bySource[label]++

		amount = amount.Add(decimal.NewFromFloat(p.TotalAmount))
		paid = paid.Add(decimal.NewFromFloat(p.TotalPaid))
		balance = balance.Add(decimal.NewFromFloat(p.Balance))
		for i, v := range p.Payments {
			stages[i] = stages[i].Add(decimal.NewFromFloat(v))
		}

		s.TeamSizeDistribution[p.NumAuthors()]++
		authorSlots += p.NumAuthors()

		for _, a := range p.Authors {
			key := a.Key()
			acc, ok := authors[key]
			if !ok {
				acc = &authorAcc{name: strings.TrimSpace(a.Name)}
				authors[key] = acc
			}
			acc.papers++
			acc.amount = acc.amount.Add(decimal.NewFromFloat(a.Amount))
		}
	}

	for key, acc := range authors {
		s.AuthorStats[key] = domain.AuthorStat{
			Key:         key,
			Name:        acc.name,
			Papers:      acc.papers,
			TotalAmount: acc.amount.InexactFloat64(),
		}
	}
	s.UniqueAuthorCount = len(s.AuthorStats)

	s.TotalAmountSum = amount.InexactFloat64()
	s.TotalPaidSum = paid.InexactFloat64()
	s.BalanceSum = balance.InexactFloat64()
	for i := range stages {
		s.PaymentStageTotals[i] = stages[i].InexactFloat64()
	}

	if len(papers) > 0 {
		s.AvgAuthorsPerPaper = float64(authorSlots) / float64(len(papers))
	}
	s.CollectionRate = CollectionRate(paid, amount)

	s.Pipeline = make([]domain.PipelineStage, len(pipelineStages))
	for i, kind := range pipelineStages {
		s.Pipeline[i] = domain.PipelineStage{
			Stage: domain.NewStatus(kind).Label(),
			Count: kindCounts[kind],
		}
	}

	return s
}

// CollectionRate is paid as a percentage of amount, with amount floored at 1
func CollectionRate(paid, amount decimal.Decimal) float64 {
	return paid.Div(decimal.Max(amount, one)).Mul(hundred).InexactFloat64()
}

// TopAuthorsByPapers ranks authors by paper count. n <= 0 returns all.
// Ties are ordered by key so output is stable, but callers should not rely on it.
func TopAuthorsByPapers(stats map[string]domain.AuthorStat, n int) []domain.AuthorStat {
	return rank(stats, n, func(a, b domain.AuthorStat) int {
		return a.Papers - b.Papers
	}, nil)
}

// TopAuthorsByAmount ranks authors with a positive amount by amount
func TopAuthorsByAmount(stats map[string]domain.AuthorStat, n int) []domain.AuthorStat {
	return rank(stats, n, func(a, b domain.AuthorStat) int {
		switch {
		case a.TotalAmount > b.TotalAmount:
			return 1
		case a.TotalAmount < b.TotalAmount:
			return -1
		}
		return 0
	}, func(a domain.AuthorStat) bool { return a.TotalAmount > 0 })
}

// rank sorts descending by cmp and truncates to n
func rank(stats map[string]domain.AuthorStat, n int, cmp func(a, b domain.AuthorStat) int, keep func(domain.AuthorStat) bool) []domain.AuthorStat {
	out := make([]domain.AuthorStat, 0, len(stats))
	for _, st := range stats {
		if keep == nil || keep(st) {
			out = append(out, st)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if c := cmp(out[i], out[j]); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RosterSummary counts clients and how many have a paper or patent entry.
// Blank rows are not clients; a missing column counts as zero.
func RosterSummary(clients domain.Table) domain.RosterStats {
	paperCol := clients.Column("Paper")
	patentCol := clients.Column("Patent")

	var st domain.RosterStats
	for _, row := range clients.Rows {
		if isBlankRow(row) {
			continue
		}
		st.TotalClients++
		if hasValue(row, paperCol) {
			st.WithPapers++
		}
		if hasValue(row, patentCol) {
			st.WithPatents++
		}
	}
	return st
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func hasValue(row []string, col int) bool {
	return col >= 0 && col < len(row) && strings.TrimSpace(row[col]) != ""
}
