package models

// Event types emitted on the lifecycle topics.
const (
	EventTranscriptReady   = "note.transcript.ready"
	EventDocumentPublished = "note.document.published"
)

// TranscriptReady is emitted once a session has been transcribed.
// FailedOrdinals lists the segments that did not contribute to Text.
type TranscriptReady struct {
	EventType      string `json:"eventType"`
	SessionID      string `json:"sessionId"`
	Timestamp      int64  `json:"timestamp"`
	SegmentCount   int    `json:"segmentCount"`
	FailedOrdinals []int  `json:"failedOrdinals,omitempty"`
	Text           string `json:"text"`
}

// DocumentPublished is emitted after the document store accepted a payload.
type DocumentPublished struct {
	EventType  string `json:"eventType"`
	RequestID  string `json:"requestId"`
	TemplateID string `json:"templateId"`
	Title      string `json:"title"`
	BlockCount int    `json:"blockCount"`
	Timestamp  int64  `json:"timestamp"`
}
