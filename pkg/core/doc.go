// Package core defines the shared language of querydeck.
//
// This package contains:
//   - Query catalog entries and result shapes (QueryDefinition, Params, RowSet, ResultTable)
//   - Audit records (Execution, ReportRun)
//   - Configuration types (TargetConfig, AdapterConfig, ReportConfig, ChartConfig)
//
// pkg/core imports only the standard library. All other packages depend
// on core, not the reverse.
package core
