package domain

// CommentAnalysis summarises a product's customer reviews
type CommentAnalysis struct {
	Summary        string `json:"summary,omitempty"`
	Quality        string `json:"quality"`
	Problems       string `json:"problems"`
	Shipping       string `json:"shipping"`
	Positives      string `json:"positives"`
	Recommendation string `json:"recommendation"`
}

// CommentReport is the analysis of one product's review page
type CommentReport struct {
	Analysis       CommentAnalysis `json:"analysis"`
	Comments       []string        `json:"comments"`
	TotalComments  int             `json:"totalComments"`
	ProductURL     string          `json:"productUrl"`
	SentimentScore float64         `json:"sentimentScore"`
}
