package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/internal/usecase"
)

// Prints the OneSignal filter the watcher would send for a set of changed airlines.
//
//	go run ./cmd/utils/preview_filter -known ME,TK,EK -match TK=1 TK EK
func main() {
	known := flag.String("known", "ME,TK,AF,EK,QR,RJ", "comma separated airline tags offered by the app")
	allFlights := flag.String("all-flights-tag", usecase.DefaultAllFlightsTag, "tag of the all-flights subscription")
	match := flag.String("match", "", "optional subscriber tags (key=value,...) to test against the filter")
	flag.Parse()

	// same normalization as the server: tags go through the airline directory, changed
	// codes through the aggregator's upper-casing
	knownTags := entity.AirlineDirectoryFromCodes(splitList(*known)).Codes()
	changed := make([]string, 0, flag.NArg())
	for _, code := range flag.Args() {
		changed = append(changed, entity.NormalizeAirlineCode(code))
	}
	filters := usecase.BuildAudienceFilter(changed, knownTags, *allFlights)

	out, err := json.MarshalIndent(filters, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode filter:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	fmt.Println("expression:", filters.String())

	if *match != "" {
		tags := map[string]string{}
		for _, pair := range splitList(*match) {
			key, value, _ := strings.Cut(pair, "=")
			tags[key] = value
		}
		fmt.Printf("subscriber %v receives: %t\n", tags, filters.Matches(tags))
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
