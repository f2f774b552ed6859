package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hospital-assistant/internal/common/config"
	commonerrors "hospital-assistant/internal/common/errors"
	"hospital-assistant/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hospitals.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func csvConfig(path string) config.CSVConfig {
	return config.CSVConfig{
		FilePath:      path,
		NameColumn:    "Hospital Name",
		CityColumn:    "City",
		AddressColumn: "Address",
	}
}

func TestCSVSource_Records(t *testing.T) {
	path := writeCSV(t, `Hospital Name,City,Address,Network Tier
Apollo Hospital,Bangalore,Sarjapur Road,Gold
Fortis Hospital,Mumbai,Mulund West,Silver
`)

	src := NewCSVSource(csvConfig(path), logger.NewTestLogger(t))
	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "Apollo Hospital", records[0].Name)
	assert.Equal(t, "Bangalore", records[0].City)
	assert.Equal(t, "Sarjapur Road", records[0].Address)
	// Unmapped column lands in Extra.
	assert.Equal(t, "Gold", records[0].Extra["Network Tier"])

	assert.Equal(t, "2", records[1].ID)
	assert.Equal(t, "Fortis Hospital", records[1].Name)
}

func TestCSVSource_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `Hospital Name,City,Address
Apollo Hospital,Bangalore,Sarjapur Road
,MissingName,Somewhere
Fortis Hospital,Mumbai,Mulund West
`)

	src := NewCSVSource(csvConfig(path), logger.NewTestLogger(t))
	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// IDs follow row numbers, so skipped rows leave gaps but IDs stay stable.
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "3", records[1].ID)
}

func TestCSVSource_ShortRows(t *testing.T) {
	path := writeCSV(t, `Hospital Name,City,Address
Apollo Hospital,Bangalore
`)

	src := NewCSVSource(csvConfig(path), logger.NewTestLogger(t))
	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bangalore", records[0].City)
	assert.Empty(t, records[0].Address)
}

func TestCSVSource_ColumnMatchIsCaseInsensitive(t *testing.T) {
	path := writeCSV(t, `HOSPITAL NAME,CITY,ADDRESS
Apollo Hospital,Bangalore,Sarjapur Road
`)

	src := NewCSVSource(csvConfig(path), logger.NewTestLogger(t))
	records, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Apollo Hospital", records[0].Name)
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := NewCSVSource(csvConfig("/nonexistent/hospitals.csv"), logger.NewTestLogger(t))
	_, err := src.Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTORY_LOAD_FAILED")
}

func TestCSVSource_MissingNameColumn(t *testing.T) {
	path := writeCSV(t, `Facility,City,Address
Apollo Hospital,Bangalore,Sarjapur Road
`)

	src := NewCSVSource(csvConfig(path), logger.NewTestLogger(t))
	_, err := src.Records(context.Background())
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Contains(t, stdErr.Details, "Hospital Name")
}
