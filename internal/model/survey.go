package model

// SurveyResult is the payload of a survey-submit packet. The client sends it
// after answering the post-close satisfaction survey. The payload is accepted
// and drained so the client never sees a protocol error, but it is not
// persisted.
type SurveyResult struct {
	Owner    PlayerID       `json:"owner"`
	SurveyID uint32         `json:"survey_id"`
	Answers  map[string]int `json:"answers,omitempty"`
	Comment  string         `json:"comment,omitempty"`
}
