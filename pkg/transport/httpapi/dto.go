package httpapi

// serverStatusResponse answers GET /server-status.
type serverStatusResponse struct {
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	BufferSize    int     `json:"bufferSize"`
}

// createContextRequest is the POST /context/create body.
type createContextRequest struct {
	Filenames []string `json:"filenames"`
}

// createContextResponse answers POST /context/create.
type createContextResponse struct {
	Context string `json:"context"`
}

// uploadResponse answers a successful POST /context/<id>/reads.
type uploadResponse struct {
	ProcessedReads int64 `json:"processedReads"`
	PendingBytes   int64 `json:"pendingBytes"`
}

// uploadErrorResponse is rendered for ChunkTooLarge / BudgetExceeded.
type uploadErrorResponse struct {
	Message        string  `json:"message"`
	RetryAfter     float64 `json:"retryAfter,omitempty"`
	PendingBytes   int64   `json:"pendingBytes,omitempty"`
	ProcessedReads int64   `json:"processedReads,omitempty"`
}

// closeResponse answers a successful POST /context/<id>/close.
type closeResponse struct {
	ReadsSaved     []string `json:"readsSaved"`
	ReadsProcessed int64    `json:"readsProcessed"`
}

// closePendingResponse answers a 503 POST /context/<id>/close.
type closePendingResponse struct {
	RetryAfter     float64 `json:"retryAfter"`
	ProcessedReads int64   `json:"processedReads"`
	PendingBytes   int64   `json:"pendingBytes"`
}

// requestDataRequest is the POST /context/<id>/request-data body.
type requestDataRequest struct {
	BytesToRequest int `json:"bytes_to_request"`
}

// errorResponse is the generic shape for 4xx/5xx bodies with just a message.
type errorResponse struct {
	Message string `json:"message"`
}
