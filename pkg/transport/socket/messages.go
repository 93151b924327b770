package socket

import (
	"encoding/json"

	"github.com/flo1101/swgts-ingest/pkg/admission"
)

// envelope is the wire shape every message is wrapped in: a type tag plus
// the type-specific payload, mirroring how the client multiplexes several
// logical message kinds over one connection.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client -> server payloads.

type createContextMsg struct {
	Filenames []string `json:"filenames"`
}

type dataUploadMsg struct {
	ContextID string             `json:"contextId"`
	Bytes     int                `json:"bytes"`
	Data      admission.RawBatch `json:"data"`
}

type closeContextMsg struct {
	ContextID string `json:"contextId"`
}

// Server -> client payloads.

type dataRequestMsg struct {
	ContextID      string `json:"contextId"`
	Bytes          int    `json:"bytes"`
	BufferFill     int64  `json:"bufferFill"`
	ProcessedReads int64  `json:"processedReads"`
}

type contextCreationErrorMsg struct {
	Message string `json:"message"`
}

type contextCloseErrorMsg struct {
	ContextID string `json:"contextId"`
	Message   string `json:"message"`
}

type contextClosedMsg struct {
	ContextID      string   `json:"contextId"`
	SavedReads     []string `json:"savedReads"`
	ProcessedReads int64    `json:"processedReads"`
}

type dataUploadErrorMsg struct {
	Message string `json:"message"`
}

const (
	typeCreateContext      = "createContext"
	typeDataUpload         = "dataUpload"
	typeCloseContext       = "closeContext"
	typeDataRequest        = "dataRequest"
	typeContextCreateError = "contextCreationError"
	typeContextCloseError  = "contextCloseError"
	typeContextClosed      = "contextClosed"
	typeDataUploadError    = "dataUploadError"
)

func encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: msgType, Payload: raw})
}
