package processor

import (
	"strings"

	"vaultmig/internal/pipeline"
)

// Case references between these inclusive lengths pass the review
// heuristics; anything outside is flagged for a person to look at.
const (
	caseReferenceMinLength = 9
	caseReferenceMaxLength = 20
)

// checkAndCreateNotifyItems raises manual-review flags for a preferred
// recording without failing the item: double-barrelled names, a blank
// case reference, or a reference whose length falls outside the accepted
// band. Exhibit-derived references carry a distinct combined reason.
func (p *Processor) checkAndCreateNotifyItems(rec pipeline.ProcessedRecording) {
	if !rec.IsPreferred {
		return
	}

	if strings.Contains(rec.DefendantLastName, "-") {
		p.tracker.AddNotify(pipeline.NotifyItem{Reason: "Double-barrelled name", Recording: rec})
	}
	if strings.Contains(rec.WitnessFirstName, "-") {
		p.tracker.AddNotify(pipeline.NotifyItem{Reason: "Double-barrelled name", Recording: rec})
	}

	caseRef := strings.TrimSpace(rec.CaseReference)
	if caseRef == "" {
		p.tracker.AddNotify(pipeline.NotifyItem{Reason: "Invalid case reference", Recording: rec})
		return
	}

	exhibitBased := rec.ExhibitReference != "" && strings.EqualFold(caseRef, rec.ExhibitReference)
	length := len(caseRef)
	outsideBand := length < caseReferenceMinLength || length > caseReferenceMaxLength

	var reason string
	switch {
	case exhibitBased && outsideBand:
		reason = "Used exhibit reference as URN did not meet requirements (length outside 9-20)"
	case exhibitBased:
		reason = "Used exhibit reference as URN did not meet requirements"
	case outsideBand:
		reason = "Invalid case reference length"
	}

	if reason != "" {
		p.tracker.AddNotify(pipeline.NotifyItem{Reason: reason, Recording: rec})
	}
}
