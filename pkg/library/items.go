package library

// Item is one entry in the gallery index. It is a view over a folder in the
// library tree, recomputed on scan, never stored.
type Item struct {
	Category   Category `json:"category"`
	Title      string   `json:"title"`
	Year       int      `json:"year,omitempty"`
	Folder     string   `json:"folder"`
	MediaFiles []string `json:"mediaFiles"`
	Sidecars   []string `json:"sidecars,omitempty"`
	Poster     string   `json:"poster,omitempty"`
	Size       string   `json:"size,omitempty"`
}
