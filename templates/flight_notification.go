package templates

import (
	"fmt"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/internal/usecase"
)

// Default presentation, matching the sounds bundled with the mobile app
const (
	DefaultDepartureTitle = "✈️ Departure Update"
	DefaultArrivalTitle   = "✈️ Arrival Update"
	DefaultDepartureSound = "departure_sound.aiff"
	DefaultArrivalSound   = "arrival_sound.aiff"

	// SUMMARY_TEMPLATE is used when a group carries more than one change
	SUMMARY_TEMPLATE = "%d updates for %s. First: %s"
)

// CategoryStyle is the title and sound of a presentation category
type CategoryStyle struct {
	Title string
	Sound string
}

// DefaultStyles returns the stock category styles
func DefaultStyles() map[entity.Category]CategoryStyle {
	return map[entity.Category]CategoryStyle{
		entity.CategoryDeparture: {Title: DefaultDepartureTitle, Sound: DefaultDepartureSound},
		entity.CategoryArrival:   {Title: DefaultArrivalTitle, Sound: DefaultArrivalSound},
	}
}

// FlightNotificationPresenter renders change groups into push notification content
type FlightNotificationPresenter struct {
	styles   map[entity.Category]CategoryStyle
	airlines *entity.AirlineDirectory
}

// NewFlightNotificationPresenter creates a presenter. Categories missing from styles use
// the defaults.
func NewFlightNotificationPresenter(styles map[entity.Category]CategoryStyle, airlines *entity.AirlineDirectory) *FlightNotificationPresenter {
	merged := DefaultStyles()
	for category, style := range styles {
		base := merged[category]
		if style.Title != "" {
			base.Title = style.Title
		}
		if style.Sound != "" {
			base.Sound = style.Sound
		}
		merged[category] = base
	}
	if airlines == nil {
		airlines = entity.NewAirlineDirectory(nil)
	}
	return &FlightNotificationPresenter{
		styles:   merged,
		airlines: airlines,
	}
}

// Present implements usecase.Presenter
func (p *FlightNotificationPresenter) Present(group usecase.ChangeGroup) usecase.Presentation {
	style := p.styles[group.Category()]
	return usecase.Presentation{
		Title: style.Title,
		Body:  group.SummaryMessage(p.summarize),
		Sound: style.Sound,
	}
}

func (p *FlightNotificationPresenter) summarize(group usecase.ChangeGroup) string {
	return fmt.Sprintf(SUMMARY_TEMPLATE, group.Count(), p.groupLabel(group), group.First().Message)
}

// groupLabel names the airline(s) a group is about
func (p *FlightNotificationPresenter) groupLabel(group usecase.ChangeGroup) string {
	carriers := len(group.AirlineCodes)
	if group.HasUnknownAirline {
		carriers++
	}

	switch {
	case carriers > 1:
		return fmt.Sprintf("%d airlines", carriers)
	case len(group.AirlineCodes) == 1:
		return p.airlines.Name(group.AirlineCodes[0])
	default:
		return entity.UnknownAirlineName
	}
}
