package challan

import "sitestock/pkg/numerator"

const (
	// DocType keys the challan number sequence.
	DocType = "ODC"

	// NumeratorStrategy for challans. Dispatch documents are produced in
	// bursts at site offices, so gaps are acceptable in exchange for fewer
	// sequence round trips.
	NumeratorStrategy = numerator.StrategyCached
)

// batchQtyTolerance is the largest allowed difference between the sum of
// batch quantities and the line quantity. Batch splits are captured to two
// decimals, so anything under half a hundredth is treated as equal.
const batchQtyTolerance = 50 // 0.0050 in quantity scale
