package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Job represents a pending float lookup for one listing
type Job struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listing_id"`
	InspectLink string    `json:"inspect_link"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// String returns a string representation of the job
func (j *Job) String() string {
	return fmt.Sprintf("Job{ID: %s, Listing: %s}", j.ID, j.ListingID)
}

// ItemInfo holds the attributes returned by the inspection backend.
// Fields the backend sends beyond float value and paint seed are kept in
// Extra and survive a marshal round trip.
type ItemInfo struct {
	FloatValue float64        `json:"floatvalue"`
	PaintSeed  int            `json:"paintseed"`
	Extra      map[string]any `json:"-"`
}

func (i *ItemInfo) UnmarshalJSON(data []byte) error {
	type plain ItemInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	delete(all, "floatvalue")
	delete(all, "paintseed")

	*i = ItemInfo(p)
	if len(all) > 0 {
		i.Extra = all
	}
	return nil
}

func (i ItemInfo) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Extra)+2)
	for k, v := range i.Extra {
		out[k] = v
	}
	out["floatvalue"] = i.FloatValue
	out["paintseed"] = i.PaintSeed
	return json.Marshal(out)
}

// InspectResponse is the backend's answer to an inspection request. A nil
// ItemInfo means the lookup failed and Error (possibly empty) says why.
type InspectResponse struct {
	ItemInfo *ItemInfo `json:"iteminfo,omitempty"`
	Error    string    `json:"error,omitempty"`
	Code     int       `json:"code,omitempty"`
}

// MarketAction is one entry of an asset's market_actions list
type MarketAction struct {
	Link string `json:"link"`
	Name string `json:"name,omitempty"`
}

// Asset is the part of a listing record the inspect link is built from
type Asset struct {
	ID            string         `json:"id"`
	MarketActions []MarketAction `json:"market_actions"`
}

// ListingRecord is one entry of the page's listing catalog
type ListingRecord struct {
	ListingID string `json:"listingid,omitempty"`
	Asset     Asset  `json:"asset"`
}

// Catalog maps listing ids to the page's listing records
type Catalog map[string]ListingRecord

// Inspector resolves an inspect link into item attributes
type Inspector interface {
	Inspect(ctx context.Context, inspectLink string) (*InspectResponse, error)
}

// Document is the per-listing read/write surface of the market page
type Document interface {
	// HasFloatDiv reports whether the float container for the listing is
	// currently present in the page.
	HasFloatDiv(ctx context.Context, listingID string) (bool, error)
	SetButtonLabel(ctx context.Context, listingID, label string) error
	SetMessage(ctx context.Context, listingID, message string) error
	// ShowFloat replaces the listing's button and message with the
	// float value and paint seed.
	ShowFloat(ctx context.Context, listingID string, info ItemInfo) error
	// ListingIDs returns the listing rows on the current page in page order.
	ListingIDs(ctx context.Context) ([]string, error)
}
