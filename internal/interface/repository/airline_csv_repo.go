package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/internal/domain/repository"

	"github.com/jszwec/csvutil"
)

// CSVAirlineRepository serves airlines from a CSV file with a code,name header
type CSVAirlineRepository struct {
	airlines []*entity.Airline
}

// NewCSVAirlineRepository reads the whole file at construction
func NewCSVAirlineRepository(path string) (repository.AirlineRepository, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open airlines csv: %w", err)
	}
	defer file.Close()

	airlines, err := ParseAirlinesCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &CSVAirlineRepository{airlines: airlines}, nil
}

// ParseAirlinesCSV decodes airline rows. Column order does not matter; extra columns
// are ignored.
func ParseAirlinesCSV(reader io.Reader) ([]*entity.Airline, error) {
	decoder, err := csvutil.NewDecoder(csv.NewReader(reader))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create CSV decoder for airlines: %w", err)
	}

	var rows []entity.Airline
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode airlines CSV data: %w", err)
	}

	airlines := make([]*entity.Airline, 0, len(rows))
	for i := range rows {
		airlines = append(airlines, &rows[i])
	}
	return airlines, nil
}

// List returns the airlines in file order
func (r *CSVAirlineRepository) List(ctx context.Context) ([]*entity.Airline, error) {
	out := make([]*entity.Airline, len(r.airlines))
	copy(out, r.airlines)
	return out, nil
}
