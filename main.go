// =============================================================================
// Sales Report Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   salesrpt report     - Aggregate sales and write the team and product reports
//   salesrpt validate   - Check the input files without writing reports
//   salesrpt version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Loaders, aggregation engine, report writer, config
//   - pkg/           : File management shared utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sales-report/cmd"
)

func main() {
	cmd.Execute()
}
