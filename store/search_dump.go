package store

// SearchDumpRow is one root direction of one search, written by the
// debugsearch tool so searches over the same position can be compared.
type SearchDumpRow struct {
	RunID       string  `parquet:"run_id,dict" json:"run_id"`
	Boards      []int32 `parquet:"boards" json:"boards"`
	Algorithm   string  `parquet:"algorithm,dict" json:"algorithm"`
	Simulations int32   `parquet:"simulations" json:"simulations"`
	Exploration float64 `parquet:"exploration" json:"exploration"`
	Rollout     string  `parquet:"rollout,dict" json:"rollout"`

	Move     int32   `parquet:"move" json:"move"`
	Estimate float64 `parquet:"estimate" json:"estimate"`
	// Tree statistics; zero for the flat searcher.
	Visits   int32 `parquet:"visits" json:"visits"`
	Reward   int32 `parquet:"reward" json:"reward"`
	Outcomes int32 `parquet:"outcomes" json:"outcomes"`
	Blocked  bool  `parquet:"blocked" json:"blocked"`
	Chosen   bool  `parquet:"chosen" json:"chosen"`
}

const SearchDumpSchema = "search_dump_v1"

// WriteSearchDump writes rows as a single file under outDir.
func WriteSearchDump(outDir string, rows []SearchDumpRow) (string, error) {
	return WriteParquetAtomic(outDir, "search", SearchDumpSchema, rows)
}
