package catalog

// beer is an item as returned by the Punk API
// (https://punkapi.online/v3/beers/{id}).
type beer struct {
	Id          int      `json:"id"`
	Name        string   `json:"name"`
	Tagline     string   `json:"tagline"`
	FirstBrewed string   `json:"first_brewed"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Abv         float64  `json:"abv"`
	Ibu         *float64 `json:"ibu"`
	Ebc         *float64 `json:"ebc"`
}

// Item is a catalog entry as exposed to the rest of the service.
type Item struct {
	Id            int      `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Strength      float64  `json:"strength"`
	PublicAverage *float64 `json:"publicAverage,omitempty"`
	Description   string   `json:"description,omitempty"`
	FirstBrewed   string   `json:"firstBrewed,omitempty"`
	Bitterness    *float64 `json:"bitterness,omitempty"`
	Color         *float64 `json:"color,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
}

type SearchResponse struct {
	Items   []Item `json:"items"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}
