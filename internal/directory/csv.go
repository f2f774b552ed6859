package directory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"hospital-assistant/internal/common/config"
	commonerrors "hospital-assistant/internal/common/errors"
	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/models"
)

// CSVSource loads hospital records from a CSV file with a header row.
// Column-to-field mapping is configured, so any directory export can be
// ingested; columns that map to nothing land in the record's Extra map.
type CSVSource struct {
	cfg config.CSVConfig
	log logger.Logger
}

func NewCSVSource(cfg config.CSVConfig, log logger.Logger) *CSVSource {
	return &CSVSource{
		cfg: cfg,
		log: log.WithFields(map[string]interface{}{"source": "csv", "file": cfg.FilePath}),
	}
}

// Records reads the whole file. Rows that cannot be parsed or that lack a
// name are skipped and counted, never fatal. IDs are assigned from the row
// number, so they are stable for one file generation.
func (s *CSVSource) Records(ctx context.Context) ([]*models.Hospital, error) {
	f, err := os.Open(s.cfg.FilePath)
	if err != nil {
		return nil, commonerrors.NewDirectoryLoadFailedError("csv", fmt.Errorf("open csv: %w", err))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are handled per-row below

	headers, err := reader.Read()
	if err != nil {
		return nil, commonerrors.NewDirectoryLoadFailedError("csv", fmt.Errorf("read csv header: %w", err))
	}

	nameIdx := findColumn(headers, s.cfg.NameColumn)
	cityIdx := findColumn(headers, s.cfg.CityColumn)
	addrIdx := findColumn(headers, s.cfg.AddressColumn)
	stateIdx := findColumn(headers, "state")
	phoneIdx := findColumn(headers, "phone")
	specIdx := findColumn(headers, "specialties")
	typeIdx := findColumn(headers, "type")
	pinIdx := findColumn(headers, "pincode")

	if nameIdx < 0 {
		return nil, commonerrors.NewDirectoryLoadFailedError("csv",
			fmt.Errorf("csv is missing the %q column", s.cfg.NameColumn))
	}

	mapped := map[int]bool{
		nameIdx: true, cityIdx: true, addrIdx: true,
		stateIdx: true, phoneIdx: true, specIdx: true, typeIdx: true, pinIdx: true,
	}

	var records []*models.Hospital
	skipped := 0
	rowNum := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			skipped++
			continue
		}

		name := cell(row, nameIdx)
		if name == "" {
			skipped++
			continue
		}

		h := &models.Hospital{
			ID:          strconv.Itoa(rowNum),
			Name:        name,
			City:        cell(row, cityIdx),
			State:       cell(row, stateIdx),
			Address:     cell(row, addrIdx),
			Phone:       cell(row, phoneIdx),
			Specialties: cell(row, specIdx),
			Type:        cell(row, typeIdx),
			Pincode:     cell(row, pinIdx),
		}

		extra := map[string]string{}
		for i := 0; i < len(headers) && i < len(row); i++ {
			if mapped[i] {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				extra[strings.TrimSpace(headers[i])] = v
			}
		}
		if len(extra) > 0 {
			h.Extra = extra
		}

		records = append(records, h)
	}

	s.log.Info("csv load complete", map[string]interface{}{
		"loaded":  len(records),
		"skipped": skipped,
	})

	return records, nil
}

func findColumn(headers []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
