package domain

// Product is a catalog record. Price is in minor currency units and Currency is an
// ISO 4217 code as stored (case is not normalized here).
type Product struct {
	ID               string `json:"id" yaml:"id"`
	Slug             string `json:"slug" yaml:"slug"`
	Name             string `json:"name" yaml:"name"`
	ShortDescription string `json:"short_description" yaml:"short_description"`
	Price            int64  `json:"price" yaml:"price"`
	Currency         string `json:"currency" yaml:"currency"`
	DownloadURL      string `json:"download_url" yaml:"download_url"`
}

type CartItem struct {
	Slug     string `json:"slug"`
	Quantity int    `json:"quantity"`
}
