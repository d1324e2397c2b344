// Package dataprocessing turns the paper-tracking workbook into typed records
// and derives filtered views and summaries from them.
//
// # Architecture
//
// The package is organized bottom-up:
//
// 1. NormalizeAmount and ClassifyStatus: cell-level conversion
// 2. Schema and SheetParser: positional work sheet layout and row extraction
// 3. ReadWorkbook: sheet selection and table extraction with excelize
// 4. Loader: snapshot cache keyed by file identity, one parse per identity
// 5. FilterPapers and Summarize: pure views over a snapshot
//
// # Usage
//
//	parser, err := dataprocessing.NewSheetParser(dataprocessing.DefaultPaperSchema(), logger)
//	if err != nil {
//	    return err
//	}
//	loader, err := dataprocessing.NewLoader("tracker.xlsx", parser, dataprocessing.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	snap, err := loader.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	papers := dataprocessing.FilterPapers(snap.Papers, dataprocessing.AllFilter(snap.Papers))
//	summary := dataprocessing.Summarize(papers)
//
// Snapshots are immutable once returned. Filtering and aggregation never
// modify their input, so a snapshot may be shared freely between goroutines.
package dataprocessing
