package model

// Citation is a source document referenced by position from completion content.
// Index is 1-based and matches the N of a "[docN]" marker.
type Citation struct {
	Index    int
	URL      string
	Title    string
	FilePath string
}

// CompletionResult is the answer returned by the completion API.
type CompletionResult struct {
	Content          string
	Citations        []Citation
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}
