package catalog

import "fmt"

func mapBeerToItem(baseURL string, b beer) Item {
	item := Item{
		Id:          b.Id,
		Name:        b.Name,
		Category:    b.Tagline,
		Strength:    b.Abv,
		Description: b.Description,
		FirstBrewed: b.FirstBrewed,
		Bitterness:  b.Ibu,
		Color:       b.Ebc,
	}
	if b.Image != "" {
		item.ImageURL = fmt.Sprintf("%s/images/%s", baseURL, b.Image)
	}
	return item
}
