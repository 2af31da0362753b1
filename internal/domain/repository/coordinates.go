package repository

import (
	"agri_service/internal/domain/model"
	"agri_service/internal/telemetry"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

var DefaultCoordinateFiles = []string{
	"osm_tarim_alanlari.csv",
	"turkiye_detayli_tarim_alanlari.csv",
	"AKILLI_tarimsal_analiz.csv",
}

// DefaultFallbackCoordinates are used when no CSV file yields a row.
var DefaultFallbackCoordinates = []model.Coordinate{
	{Lat: 39.9334, Lon: 32.8597}, {Lat: 41.0082, Lon: 28.9784}, {Lat: 38.4237, Lon: 27.1428},
	{Lat: 36.9864, Lon: 35.3253}, {Lat: 40.1885, Lon: 29.0610}, {Lat: 37.9144, Lon: 40.2306},
	{Lat: 41.2867, Lon: 36.3300}, {Lat: 36.8000, Lon: 34.6333}, {Lat: 39.0571, Lon: 36.1713},
	{Lat: 40.7214, Lon: 41.8005}, {Lat: 40.7522, Lon: 41.8280},
}

var errNoCoordinateColumns = errors.New("no lat/lon or latitude/longitude columns")

type CSVCoordinateSource struct {
	files    []string
	fallback []model.Coordinate
	logger   *telemetry.Logger
}

func NewCSVCoordinateSource(files []string, fallback []model.Coordinate, logger *telemetry.Logger) *CSVCoordinateSource {
	if files == nil {
		files = DefaultCoordinateFiles
	}
	if len(fallback) == 0 {
		fallback = DefaultFallbackCoordinates
	}
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &CSVCoordinateSource{files: files, fallback: fallback, logger: logger}
}

// Coordinates concatenates the rows of every readable file in order. Missing files are
// skipped silently, unreadable ones are logged and skipped.
func (s *CSVCoordinateSource) Coordinates(ctx context.Context) ([]model.Coordinate, error) {
	var coords []model.Coordinate

	for _, path := range s.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileCoords, err := readCoordinateFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.logger.WithContext(ctx).WithError(err).WithField("file", path).Error("Error reading coordinate file")
			continue
		}

		s.logger.WithContext(ctx).WithField("file", path).Infof("%d coordinates loaded", len(fileCoords))
		coords = append(coords, fileCoords...)
	}

	if len(coords) == 0 {
		s.logger.WithContext(ctx).Warn("No coordinate files found, using sample coordinates")
		coords = make([]model.Coordinate, len(s.fallback))
		copy(coords, s.fallback)
	}

	return coords, nil
}

func readCoordinateFile(path string) ([]model.Coordinate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening coordinate file: %w", err)
	}
	defer file.Close()

	return parseCoordinateCSV(file)
}

type csvColumns struct {
	lat, lon, landcover, name, source int
}

func findColumns(header []string) (csvColumns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	lookup := func(names ...string) int {
		for _, n := range names {
			if i, ok := index[n]; ok {
				return i
			}
		}
		return -1
	}

	cols := csvColumns{lat: -1, lon: -1}
	if lat, lon := lookup("lat"), lookup("lon"); lat >= 0 && lon >= 0 {
		cols.lat, cols.lon = lat, lon
	} else if lat, lon := lookup("latitude"), lookup("longitude"); lat >= 0 && lon >= 0 {
		cols.lat, cols.lon = lat, lon
	} else {
		return cols, errNoCoordinateColumns
	}

	cols.landcover = lookup("type", "landcover", "landcover_type")
	cols.name = lookup("name")
	cols.source = lookup("source")
	return cols, nil
}

// parseCoordinateCSV reads a header row followed by data rows. Rows whose coordinates
// do not parse are skipped. A file without recognised columns yields no rows.
func parseCoordinateCSV(r io.Reader) ([]model.Coordinate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols, err := findColumns(header)
	if err != nil {
		return nil, nil
	}

	var coords []model.Coordinate
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}

		lat, okLat := parseField(record, cols.lat)
		lon, okLon := parseField(record, cols.lon)
		if !okLat || !okLon {
			continue
		}

		coords = append(coords, model.Coordinate{
			Lat:       lat,
			Lon:       lon,
			Landcover: field(record, cols.landcover),
			Name:      field(record, cols.name),
			Source:    field(record, cols.source),
		})
	}

	return coords, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseField(record []string, i int) (float64, bool) {
	raw := field(record, i)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
