package whisper

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transcript is the parsed JSON artifact written by the whisper.cpp
// executable when invoked with --output-json.
type Transcript struct {
	SystemInfo string `json:"systeminfo,omitempty"`
	Result     struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []Segment `json:"transcription"`
}

// Segment is one transcribed span with wall-clock style timestamps and
// millisecond offsets from the start of the audio.
type Segment struct {
	Timestamps struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"timestamps"`
	Offsets struct {
		From int64 `json:"from"`
		To   int64 `json:"to"`
	} `json:"offsets"`
	Text string `json:"text"`
}

// Text joins all segment texts into a single trimmed string.
func (t Transcript) Text() string {
	var b strings.Builder
	for _, seg := range t.Transcription {
		b.WriteString(seg.Text)
	}
	return strings.TrimSpace(b.String())
}

// ParseTranscript decodes an output artifact produced by the executable.
func ParseTranscript(data []byte) (Transcript, error) {
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Transcript{}, fmt.Errorf("parse transcript artifact: %w", err)
	}
	return t, nil
}
