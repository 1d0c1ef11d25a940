package dto

// MarketauxNewsResponse is the /v1/news/all payload.
type MarketauxNewsResponse struct {
	Data []MarketauxArticle `json:"data"`
}

// MarketauxArticle is one raw article from Marketaux.
type MarketauxArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
}

// MarketauxErrorResponse is returned on non-2xx statuses.
type MarketauxErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
