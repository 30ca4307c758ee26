package ports

import (
	"gopvt/domain/frame"
)

// MeasurementReader produces a table of raw PVT trial measurements from
// some external source (CSV file, Excel workbook, request body).
type MeasurementReader interface {
	Read() (*frame.Table, error)
}
