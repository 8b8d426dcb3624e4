package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

// Board query values of the airport site
const (
	BoardDepartures = "dprtr"
	BoardArrivals   = "arivl"
)

const boardCells = 9

// Column positions in a board row
const (
	cellAirline = 0
	cellFlight  = 2
	cellStatus  = 7
	cellActual  = 8
)

// BoardScraper reads the departures and arrivals boards of the airport site
type BoardScraper struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// NewBoardScraper creates a scraper for the board page at baseURL
func NewBoardScraper(baseURL string, timeout time.Duration, logger logger.Logger) *BoardScraper {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &BoardScraper{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CanHandle accepts any http(s) page that is not a JSON feed
func (s *BoardScraper) CanHandle(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return !strings.HasSuffix(strings.ToLower(u.Path), ".json")
}

// Fetch scrapes both boards into one snapshot. A flight listed on both boards keeps
// its arrivals entry.
func (s *BoardScraper) Fetch(ctx context.Context) (entity.Snapshot, error) {
	snapshot := entity.Snapshot{}

	for _, board := range []string{BoardDepartures, BoardArrivals} {
		flights, err := s.fetchBoard(ctx, board)
		if err != nil {
			return nil, err
		}
		for id, record := range flights {
			snapshot[id] = record
		}
		s.logger.Debug("Board scraped", "board", board, "flights", len(flights))
	}

	s.logger.Info("Flight board scraped", "flights", len(snapshot))
	return snapshot, nil
}

func (s *BoardScraper) fetchBoard(ctx context.Context, board string) (entity.Snapshot, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid board url %q: %w", s.baseURL, err)
	}
	query := u.Query()
	query.Set("type", board)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s board: %w", board, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s board returned status %d", board, resp.StatusCode)
	}

	return ParseBoard(resp.Body, entity.ParseFlightType(board))
}

// ParseBoard extracts flights from a board page. Rows without nine cells, an airline
// logo, a flight number or a table date are skipped.
func ParseBoard(r io.Reader, flightType entity.FlightType) (entity.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board html: %w", err)
	}

	snapshot := entity.Snapshot{}
	doc.Find("table.flight_table tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != boardCells {
			return
		}

		alt, _ := cells.Eq(cellAirline).Find("img").Attr("alt")
		airlineCode := entity.NormalizeAirlineCode(alt)
		if airlineCode == "" {
			return
		}

		flightNumber := strings.TrimSpace(cells.Eq(cellFlight).Text())
		date := strings.TrimSpace(row.Closest("table").Find("tr.date_row").Text())
		if flightNumber == "" || date == "" {
			return
		}

		id := entity.FlightID(flightNumber, date)
		snapshot[id] = entity.FlightRecord{
			ID:           id,
			FlightNumber: flightNumber,
			AirlineCode:  airlineCode,
			Status:       strings.TrimSpace(cells.Eq(cellStatus).Text()),
			ActualTime:   strings.TrimSpace(cells.Eq(cellActual).Text()),
			Type:         flightType,
		}
	})

	return snapshot, nil
}
