package usecase

import (
	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/pkg/utils"
)

// DiffSnapshots returns the status changes between two snapshots, ordered by ascending
// flight id of the current snapshot.
//
// A change is reported only for ids present in both snapshots whose normalized status
// differs and whose normalized new status is not empty. Flights that appear or disappear
// between the two snapshots are not changes.
func DiffSnapshots(previous, current entity.Snapshot) []entity.Change {
	if len(previous) == 0 || len(current) == 0 {
		return nil
	}

	var changes []entity.Change
	for _, id := range current.IDs() {
		old, ok := previous[id]
		if !ok {
			continue
		}
		record := current[id]

		newStatus := utils.NormalizeStatus(record.Status)
		if newStatus == "" {
			continue
		}
		oldStatus := utils.NormalizeStatus(old.Status)
		if oldStatus == newStatus {
			continue
		}

		flightNumber := record.FlightNumber
		if flightNumber == "" {
			flightNumber = id
		}

		changes = append(changes, entity.Change{
			FlightID:     id,
			FlightNumber: flightNumber,
			AirlineCode:  entity.NormalizeAirlineCode(record.AirlineCode),
			Type:         record.Type,
			OldStatus:    oldStatus,
			NewStatus:    newStatus,
			ActualTime:   utils.NormalizeStatus(record.ActualTime),
			Message:      entity.RenderChangeMessage(flightNumber, newStatus),
		})
	}
	return changes
}
