package batch

// Stage is one step of the export pipeline. Stages advance linearly;
// a guard failure short-circuits every remaining stage.
type Stage int

const (
	StageSelected Stage = iota
	StageAddressFiltered
	StageCollected
	StageOptionsApplied
	StageShipmentsCreated
	StageFulfilmentRequested
	StageConsignmentsSynced
	StageTracksCreated
	StageConceptsCreated
	StageTracksUpdated
	StageReturnsAdded
	StageLabelsRendered
	StageEmailsSent
	StageLabelsDownloaded
)

// String returns the stage name used in logs and metrics.
func (s Stage) String() string {
	switch s {
	case StageSelected:
		return "selected"
	case StageAddressFiltered:
		return "address_filtered"
	case StageCollected:
		return "collected"
	case StageOptionsApplied:
		return "options_applied"
	case StageShipmentsCreated:
		return "shipments_created"
	case StageFulfilmentRequested:
		return "fulfilment_requested"
	case StageConsignmentsSynced:
		return "consignments_synced"
	case StageTracksCreated:
		return "tracks_created"
	case StageConceptsCreated:
		return "concepts_created"
	case StageTracksUpdated:
		return "tracks_updated"
	case StageReturnsAdded:
		return "returns_added"
	case StageLabelsRendered:
		return "labels_rendered"
	case StageEmailsSent:
		return "emails_sent"
	case StageLabelsDownloaded:
		return "labels_downloaded"
	default:
		return "unknown"
	}
}

// Export modes.
const (
	ModeShipments = "shipments"
	ModePPS       = "pps"
)
