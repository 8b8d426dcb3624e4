package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardRow(logoAlt, flight, status, actual string) string {
	logo := ""
	if logoAlt != "" {
		logo = fmt.Sprintf(`<img src="/logos/x.png" alt="%s">`, logoAlt)
	}
	return fmt.Sprintf(`<tr><td>%s</td><td>Istanbul</td><td>%s</td><td>10:00</td><td>A</td><td>3</td><td>12</td><td>%s</td><td>%s</td></tr>`,
		logo, flight, status, actual)
}

func boardPage(tables ...string) string {
	return "<html><body>" + strings.Join(tables, "") + "</body></html>"
}

func boardTable(date string, rows ...string) string {
	return fmt.Sprintf(`<table class="flight_table"><thead><tr class="date_row"><th colspan="9">%s</th></tr></thead><tbody>%s</tbody></table>`,
		date, strings.Join(rows, ""))
}

func TestParseBoard(t *testing.T) {
	page := boardPage(
		boardTable("01/05/2024",
			boardRow("tk", "TK827", " Delayed ", "11:20"),
			boardRow("ME", "ME201", "On&nbsp;Time", ""),
			boardRow("", "XX100", "Landed", "09:00"),
			boardRow("EK", "", "Landed", "09:00"),
			`<tr><td colspan="9">Short row</td></tr>`,
		),
		boardTable("02/05/2024",
			boardRow("TK", "TK827", "Scheduled", ""),
		),
	)

	snapshot, err := ParseBoard(strings.NewReader(page), entity.FlightDeparture)
	require.NoError(t, err)
	require.Len(t, snapshot, 3)

	tk := snapshot["TK827-01/05/2024"]
	assert.Equal(t, "TK827", tk.FlightNumber)
	assert.Equal(t, "TK", tk.AirlineCode)
	assert.Equal(t, "Delayed", tk.Status)
	assert.Equal(t, "11:20", tk.ActualTime)
	assert.Equal(t, entity.FlightDeparture, tk.Type)

	assert.Equal(t, "Scheduled", snapshot["TK827-02/05/2024"].Status)

	me := snapshot["ME201-01/05/2024"]
	assert.Equal(t, "On\u00a0Time", me.Status, "entities are decoded, not normalized")
	assert.Equal(t, "", me.ActualTime)
}

func TestParseBoard_NoTables(t *testing.T) {
	snapshot, err := ParseBoard(strings.NewReader("<html><body><p>maintenance</p></body></html>"), entity.FlightArrival)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestBoardScraper_Fetch(t *testing.T) {
	var boards []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		board := r.URL.Query().Get("type")
		boards = append(boards, board)

		switch board {
		case BoardDepartures:
			fmt.Fprint(w, boardPage(boardTable("01/05/2024", boardRow("TK", "TK827", "Boarding", ""))))
		case BoardArrivals:
			fmt.Fprint(w, boardPage(boardTable("01/05/2024",
				boardRow("EK", "EK957", "Landed", "13:45"),
				boardRow("TK", "TK827", "Landed", "08:00"),
			)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := NewBoardScraper(server.URL+"/_flight.php", time.Second, logger.NewNopLogger())

	snapshot, err := s.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{BoardDepartures, BoardArrivals}, boards)
	require.Len(t, snapshot, 2)
	assert.Equal(t, entity.FlightArrival, snapshot["EK957-01/05/2024"].Type)
	// arrivals board wins for an id listed on both
	assert.Equal(t, entity.FlightArrival, snapshot["TK827-01/05/2024"].Type)
	assert.Equal(t, "Landed", snapshot["TK827-01/05/2024"].Status)
}

func TestBoardScraper_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") == BoardArrivals {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, boardPage())
	}))
	defer server.Close()

	s := NewBoardScraper(server.URL, time.Second, logger.NewNopLogger())

	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arivl board returned status 502")
}

func TestBoardScraper_CanHandle(t *testing.T) {
	s := NewBoardScraper("", 0, logger.NewNopLogger())

	assert.True(t, s.CanHandle("https://www.beirutairport.gov.lb/_flight.php"))
	assert.False(t, s.CanHandle("https://example.com/flight_data.json"))
	assert.False(t, s.CanHandle("flight_data.json"))
	assert.False(t, s.CanHandle("ftp://example.com/board"))
}
