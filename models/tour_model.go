package models

// TourSnapshot is the read-only view of the tour session handed out of the
// service layer.
type TourSnapshot struct {
	IsActive     bool     `json:"isTourActive"`
	TourID       *string  `json:"currentTourId"`
	PlayedPOIIDs []string `json:"playedPoiIds"`
}

type EventKind string

const (
	KindPOI EventKind = "POI"
	KindAd  EventKind = "AD"
)

const (
	TypePOITrigger = "POI_TRIGGER"
	TypeAdTrigger  = "AD_TRIGGER"
)

// ResolvedContent is a POI or ad with every language present and every media
// reference turned into an absolute URL.
type ResolvedContent struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description map[string]string `json:"description"`
	Image       string            `json:"image"`
	Audio       map[string]string `json:"audio"`
}

// BroadcastEvent is built per trigger, published once and dropped.
type BroadcastEvent struct {
	Kind    EventKind
	Content ResolvedContent
}

// TriggerMessage is the JSON envelope sent to subscribers.
type TriggerMessage struct {
	Type string          `json:"type"`
	Kind EventKind       `json:"kind"`
	POI  ResolvedContent `json:"poi"`
}

// Message builds the wire envelope. With adTriggerType set, ads travel as
// AD_TRIGGER; otherwise both kinds share POI_TRIGGER and are told apart by
// Kind.
func (e BroadcastEvent) Message(adTriggerType bool) TriggerMessage {
	typ := TypePOITrigger
	if e.Kind == KindAd && adTriggerType {
		typ = TypeAdTrigger
	}
	return TriggerMessage{Type: typ, Kind: e.Kind, POI: e.Content}
}
