// Package shared holds code used across papertrack's internal packages that
// belongs to no single layer.
//
// The testutil subpackage provides test helpers:
//
//   - NewTestLogger returns a slog.Logger whose records are captured in
//     memory for assertions.
//   - NewWorkbook builds .xlsx fixtures in the tracker layout, and
//     SampleWorkbook writes a small workbook exercising placeholders, text
//     amounts and custom statuses.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.SampleWorkbook(t, t.TempDir())
//	    ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
