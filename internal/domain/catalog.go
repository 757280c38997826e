package domain

// CatalogEntry is an existing store product as returned by the Shopify
// REST listing. The sync core only reads these; it never constructs them.
type CatalogEntry struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	BodyHTML string           `json:"body_html"`
	Tags     string           `json:"tags"` // comma-separated, REST convention
	Variants []CatalogVariant `json:"variants"`
}

// CatalogVariant carries the SKU/price/inventory of one store variant.
// Price stays a string because the REST API serializes it that way.
type CatalogVariant struct {
	ID                int64  `json:"id"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// ProductCreate is the full payload for a new store product.
type ProductCreate struct {
	Title       string          `json:"title"`
	BodyHTML    string          `json:"body_html"`
	Vendor      string          `json:"vendor"`
	ProductType string          `json:"product_type,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Options     []string        `json:"options,omitempty"` // axis names, fixed order: color, size, material
	Variants    []VariantCreate `json:"variants"`
}

// VariantCreate is one variant of a ProductCreate. Option values align
// positionally with the parent's Options axes.
type VariantCreate struct {
	SKU      string   `json:"sku"`
	Barcode  string   `json:"barcode,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity int      `json:"inventory_quantity"`
	Options  []string `json:"options,omitempty"`
}

// ProductUpdate is a minimal diff against an existing entry: only the
// fields that changed are non-nil, plus the identifiers needed to
// address the product and its matched variant.
type ProductUpdate struct {
	ProductID int64    `json:"product_id"`
	VariantID int64    `json:"variant_id,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	BodyHTML  *string  `json:"body_html,omitempty"`
	Tags      []string `json:"tags,omitempty"` // nil means unchanged
}

// IsEmpty reports whether the update carries no field changes.
func (u *ProductUpdate) IsEmpty() bool {
	return u.Price == nil && u.BodyHTML == nil && u.Tags == nil
}
