// Package models defines the core data structures for the storefront:
// cart lines, catalog products, filament colors, and user profiles.
package models

// CartLine is one row in the cart. Two lines are the same line iff
// ProductID, Color and FilamentType are all equal; Quantity is not part
// of the identity.
type CartLine struct {
	// ProductID is the catalog identity of the product.
	ProductID int `json:"id"`
	// Name is a display cache, redundant with the catalog but kept so the
	// cart renders without a network round trip.
	Name string `json:"name"`
	// UnitPrice is the price snapshot taken at add-time.
	UnitPrice float64 `json:"price"`
	// Image is an optional product image URL.
	Image string `json:"image,omitempty"`
	// Quantity is always >= 1; a line reaching 0 is removed, never kept.
	Quantity int `json:"quantity"`
	// Color is the selected color variant (hex token, e.g. "FF0000").
	Color string `json:"color"`
	// FilamentType is the selected material variant ("PLA" or "PETG").
	FilamentType string `json:"filamentType"`
}

// SameLine reports whether other resolves to the same cart line under the
// (ProductID, Color, FilamentType) identity rule.
func (l CartLine) SameLine(other CartLine) bool {
	return l.ProductID == other.ProductID &&
		l.Color == other.Color &&
		l.FilamentType == other.FilamentType
}

// FilamentType identifiers accepted by the catalog.
const (
	FilamentPLA  = "PLA"
	FilamentPETG = "PETG"
)

// Product is the catalog detail returned by GET /product/{id}.
type Product struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	ImageGallery []string `json:"imageGallery,omitempty"`
	STL          string   `json:"stl"`
	Price        float64  `json:"price"`
	FilamentType string   `json:"filamentType"`
	SKUNumber    string   `json:"skuNumber"`
	Color        string   `json:"color"`
}

// Pagination describes the paging block of a product list response.
type Pagination struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// ProductList is the response for the paginated product listing.
type ProductList struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Filament is one color option for a filament type.
type Filament struct {
	Filament string `json:"filament"`
	HexColor string `json:"hexColor"`
	ColorTag string `json:"colorTag"`
	Profile  string `json:"profile"`
}

// ColorsResponse is the response for GET /colors.
type ColorsResponse struct {
	Data []Filament `json:"data"`
}

// Profile is the authenticated user's profile.
type Profile struct {
	ID              int    `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ShippingAddress string `json:"shippingAddress"`
	City            string `json:"city"`
	State           string `json:"state"`
	ZipCode         string `json:"zipCode"`
	Country         string `json:"country"`
	Phone           string `json:"phone"`
}

// Authenticator summarizes one registered passkey.
type Authenticator struct {
	CredentialID string `json:"credentialId"`
	Name         string `json:"name,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}
