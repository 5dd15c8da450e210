package models

const (
	CityUnspecified  = "unspecified"
	UploadedByManual = "manual"
)

type Video struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Thumbnail  *string `json:"thumbnail"` // not extracted yet, always nil
	City       string  `json:"city"`
	UploadedBy string  `json:"uploadedBy"`
}
