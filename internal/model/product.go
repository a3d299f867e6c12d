package model

// Product identifies the Atlassian product a notification originates from.
type Product string

const (
	ProductBitbucket             Product = "bitbucket"
	ProductConfluence            Product = "confluence"
	ProductCompass               Product = "compass"
	ProductHome                  Product = "home"
	ProductJira                  Product = "jira"
	ProductJiraServiceManagement Product = "jira_service_management"
	ProductJiraProductDiscovery  Product = "jira_product_discovery"
	ProductTeams                 Product = "teams"
	ProductUnknown               Product = "unknown"
)

// AllProducts contains every catalog product, in display order.
var AllProducts = []Product{
	ProductBitbucket,
	ProductCompass,
	ProductConfluence,
	ProductHome,
	ProductJira,
	ProductJiraProductDiscovery,
	ProductJiraServiceManagement,
	ProductTeams,
	ProductUnknown,
}

// ProductDetails is the display metadata for a product.
type ProductDetails struct {
	Name  string
	Code  string
	Color string
}

var productCatalog = map[Product]ProductDetails{
	ProductBitbucket:             {Name: "Bitbucket", Code: "BB", Color: "#2684FF"},
	ProductCompass:               {Name: "Compass", Code: "CP", Color: "#6554C0"},
	ProductConfluence:            {Name: "Confluence", Code: "CF", Color: "#1868DB"},
	ProductHome:                  {Name: "Home", Code: "HM", Color: "#FF8B00"},
	ProductJira:                  {Name: "Jira", Code: "JR", Color: "#0052CC"},
	ProductJiraProductDiscovery:  {Name: "Jira Product Discovery", Code: "PD", Color: "#FFAB00"},
	ProductJiraServiceManagement: {Name: "Jira Service Management", Code: "SM", Color: "#00B8D9"},
	ProductTeams:                 {Name: "Teams", Code: "TM", Color: "#36B37E"},
	ProductUnknown:               {Name: "Atlassian", Code: "??", Color: "#7A869A"},
}

// Details returns the display metadata for p. Products outside the
// catalog resolve to the unknown product's metadata.
func (p Product) Details() ProductDetails {
	if d, ok := productCatalog[p]; ok {
		return d
	}
	return productCatalog[ProductUnknown]
}

// Valid reports whether p is a catalog product.
func (p Product) Valid() bool {
	_, ok := productCatalog[p]
	return ok
}
