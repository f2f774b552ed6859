package directory

import (
	"context"
	"database/sql"
	"fmt"

	commonerrors "hospital-assistant/internal/common/errors"
	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/models"
)

// PostgresSource loads hospital records from a SQL table. It expects the
// columns id, name, city, state, address, phone, specialties, type and
// pincode; everything but id and name may be NULL.
type PostgresSource struct {
	db    *sql.DB
	table string
	log   logger.Logger
}

func NewPostgresSource(db *sql.DB, table string, log logger.Logger) *PostgresSource {
	return &PostgresSource{
		db:    db,
		table: table,
		log:   log.WithFields(map[string]interface{}{"source": "postgres", "table": table}),
	}
}

func (s *PostgresSource) Records(ctx context.Context) ([]*models.Hospital, error) {
	query := fmt.Sprintf(
		`SELECT id, name, city, state, address, phone, specialties, type, pincode FROM %s ORDER BY id`,
		s.table,
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, commonerrors.NewDirectoryLoadFailedError("postgres", fmt.Errorf("query hospitals: %w", err))
	}
	defer rows.Close()

	var records []*models.Hospital
	skipped := 0

	for rows.Next() {
		var h models.Hospital
		var city, state, addr, phone, spec, typ, pin sql.NullString
		if err := rows.Scan(&h.ID, &h.Name, &city, &state, &addr, &phone, &spec, &typ, &pin); err != nil {
			skipped++
			continue
		}
		if h.Name == "" {
			skipped++
			continue
		}
		h.City = city.String
		h.State = state.String
		h.Address = addr.String
		h.Phone = phone.String
		h.Specialties = spec.String
		h.Type = typ.String
		h.Pincode = pin.String
		records = append(records, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewDirectoryLoadFailedError("postgres", fmt.Errorf("iterate hospitals: %w", err))
	}

	s.log.Info("postgres load complete", map[string]interface{}{
		"loaded":  len(records),
		"skipped": skipped,
	})

	return records, nil
}
