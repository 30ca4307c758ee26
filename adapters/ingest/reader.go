// Package ingest reads raw PVT measurements from CSV and Excel files into
// the tabular form the pipeline consumes.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gopvt/domain/frame"
	"gopvt/domain/pvt"
	"gopvt/internal"
)

// DataReader handles reading Excel and CSV measurement files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	cols     pvt.Columns
	log      *internal.Logger
}

// NewDataReader creates a reader that picks CSV or Excel handling from the
// file extension. The column names locate the user/session/response fields
// in the header row.
func NewDataReader(filePath string, cols pvt.Columns) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		cols:     cols,
		log:      internal.DefaultLogger,
	}
}

// Read loads the file into a measurement table. Rows whose response cell is
// blank or unparseable are skipped (and counted); validity filtering of
// non-positive response times is the pipeline's job, not the reader's.
func (r *DataReader) Read() (*frame.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	return r.tabulate(rows)
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, handled in tabulate
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets: %s", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// tabulate converts header+rows into a measurement table. User and session
// ids stay as strings; the response column must parse as a float.
func (r *DataReader) tabulate(rows [][]string) (*frame.Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty: %s", r.filePath)
	}

	header := rows[0]
	userIdx, sessionIdx, responseIdx := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case r.cols.User:
			userIdx = i
		case r.cols.Session:
			sessionIdx = i
		case r.cols.Response:
			responseIdx = i
		}
	}
	if userIdx < 0 || sessionIdx < 0 || responseIdx < 0 {
		return nil, fmt.Errorf("header is missing required columns %q, %q, %q (got %v)",
			r.cols.User, r.cols.Session, r.cols.Response, header)
	}

	table := frame.New(r.cols.User, r.cols.Session, r.cols.Response)
	skipped := 0
	maxIdx := userIdx
	if sessionIdx > maxIdx {
		maxIdx = sessionIdx
	}
	if responseIdx > maxIdx {
		maxIdx = responseIdx
	}
	for _, row := range rows[1:] {
		if len(row) <= maxIdx {
			skipped++
			continue
		}
		response, err := strconv.ParseFloat(strings.TrimSpace(row[responseIdx]), 64)
		if err != nil {
			skipped++
			continue
		}
		user := strings.TrimSpace(row[userIdx])
		session := strings.TrimSpace(row[sessionIdx])
		if user == "" || session == "" {
			skipped++
			continue
		}
		if err := table.AppendRow(user, session, response); err != nil {
			return nil, err
		}
	}
	if skipped > 0 {
		r.log.Debug("skipped %d malformed rows in %s", skipped, r.filePath)
	}
	r.log.Info("read %d measurements from %s", table.Len(), r.filePath)
	return table, nil
}
