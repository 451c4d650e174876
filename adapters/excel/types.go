package excel

// RawTable is a sheet or CSV file as read, before type inference
type RawTable struct {
	Headers []string   // Column headers
	Rows    [][]string // Data rows, padded to len(Headers)
}
