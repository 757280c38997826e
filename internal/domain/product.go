package domain

// FeedRecord is one product as it appears in the Sentos XML feed,
// before any normalization. Raw numeric fields stay strings because
// the feed formats them inconsistently (comma decimals, empty tags).
type FeedRecord struct {
	VendorID        string
	StockCode       string
	Barcode         string
	CategoryPath    string // ">"-delimited hierarchy, e.g. "Giyim > Elbise > Midi"
	Title           string
	SubTitle        string
	Description     string // possibly HTML
	RawPrice        string
	RawComparePrice string
	RawStock        string
	RawWeight       string
	Brand           string
	Supplier        string
	Images          []string
	Variants        []FeedVariant
}

// FeedVariant is one attribute set (color/size/material/pattern) of a feed record.
type FeedVariant struct {
	StockCode string
	Barcode   string
	Color     string
	Size      string
	Material  string
	Pattern   string
}

// NormalizedProduct is a FeedRecord folded into canonical attributes,
// ready for matching against the store catalog.
type NormalizedProduct struct {
	VendorID     string        `json:"vendorId"`
	SKU          string        `json:"sku"` // never empty: stock code or FEED_<vendor id>
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        *float64      `json:"price"`        // nil when the feed value did not parse
	ComparePrice *float64      `json:"comparePrice"` // nil when absent or unparseable
	Stock        int           `json:"stock"`        // never negative
	Weight       float64       `json:"weight"`
	MainCategory string        `json:"mainCategory"`
	Tags         []string      `json:"tags"`
	Brand        string        `json:"brand"`
	Supplier     string        `json:"supplier,omitempty"`
	Images       []string      `json:"images,omitempty"`
	Variants     []FeedVariant `json:"variants,omitempty"`
}
