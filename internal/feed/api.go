package feed

// ApiItem is one observation as reported by the upstream feed.
type ApiItem struct {
	AttractionID string   `json:"attractionId"`
	CrowdLevel   float64  `json:"crowdLevel"`
	WaitTime     *int     `json:"waitTime"`
	ObservedAt   string   `json:"observedAt"`
	Confidence   *float64 `json:"confidence"`
}

// ApiResponse models the top-level structure of the upstream API's response.
type ApiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    struct {
		Total int       `json:"total"`
		Items []ApiItem `json:"items"`
	} `json:"data"`
}
