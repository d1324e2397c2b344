// Package archive keeps a history of workbook snapshots in a SQLite database
// so earlier states of the tracker can be compared after the spreadsheet has
// been edited. The pure-Go modernc.org/sqlite driver is used, so no cgo
// toolchain is needed.
package archive
