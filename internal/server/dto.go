package server

// IngestRequest opens an ingestion stream for one video URL.
type IngestRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ChatRequest opens a chat stream for one question.
type ChatRequest struct {
	Question string `json:"question" validate:"required"`
}

// SearchRequest runs a plain top-k similarity search.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	K     int    `json:"k" validate:"gte=0,lte=50"`
}

// SearchResultDTO is one match in a search response.
type SearchResultDTO struct {
	Index   int     `json:"index"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is the search endpoint's body.
type SearchResponse struct {
	Results []SearchResultDTO `json:"results"`
}

// ErrorResponse is the body of non-streaming failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
