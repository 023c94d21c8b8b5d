package scraper

// App is an application record as returned by the store.
type App struct {
	ID                    int64    `json:"id"`
	AppID                 string   `json:"appId"`
	Title                 string   `json:"title"`
	URL                   string   `json:"url"`
	Description           string   `json:"description,omitempty"`
	Icon                  string   `json:"icon,omitempty"`
	Genres                []string `json:"genres,omitempty"`
	GenreIDs              []string `json:"genreIds,omitempty"`
	PrimaryGenre          string   `json:"primaryGenre,omitempty"`
	PrimaryGenreID        int64    `json:"primaryGenreId,omitempty"`
	ContentRating         string   `json:"contentRating,omitempty"`
	Languages             []string `json:"languages,omitempty"`
	Size                  string   `json:"size,omitempty"`
	RequiredOsVersion     string   `json:"requiredOsVersion,omitempty"`
	Released              string   `json:"released,omitempty"`
	Updated               string   `json:"updated,omitempty"`
	ReleaseNotes          string   `json:"releaseNotes,omitempty"`
	Version               string   `json:"version,omitempty"`
	Price                 float64  `json:"price"`
	Currency              string   `json:"currency,omitempty"`
	Free                  bool     `json:"free"`
	DeveloperID           int64    `json:"developerId,omitempty"`
	Developer             string   `json:"developer"`
	DeveloperURL          string   `json:"developerUrl,omitempty"`
	DeveloperWebsite      string   `json:"developerWebsite,omitempty"`
	Score                 float64  `json:"score,omitempty"`
	Reviews               int64    `json:"reviews,omitempty"`
	CurrentVersionScore   float64  `json:"currentVersionScore,omitempty"`
	CurrentVersionReviews int64    `json:"currentVersionReviews,omitempty"`
	Screenshots           []string `json:"screenshots,omitempty"`
	IpadScreenshots       []string `json:"ipadScreenshots,omitempty"`
	AppletvScreenshots    []string `json:"appletvScreenshots,omitempty"`
	SupportedDevices      []string `json:"supportedDevices,omitempty"`
}

// Review is a single customer review.
type Review struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	UserURL  string `json:"userUrl"`
	Version  string `json:"version"`
	Score    int    `json:"score"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	URL      string `json:"url,omitempty"`
	Updated  string `json:"updated,omitempty"`
}
