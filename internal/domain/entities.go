package domain

import (
	"fmt"
	"strings"
)

// Sentinel cell values shared by every output table.
const (
	SentinelError    = "error"
	SentinelNotFound = "not found"
	SentinelEmpty    = "NA"
)

type Chunk struct {
	ID      string
	PaperID string
	Index   int
	Text    string
}

// ChunkID is deterministic so re-indexing the same section overwrites
// instead of duplicating.
func ChunkID(paperID string, index int) string {
	return fmt.Sprintf("paper%ssection%d", paperID, index)
}

type Hit struct {
	Chunk Chunk
	Score float32
}

type Parameter struct {
	Name       string
	Definition string
}

// String renders the parameter for prompts and retrieval queries.
func (p Parameter) String() string {
	if p.Definition == "" {
		return p.Name
	}
	return p.Name + ": " + p.Definition
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }
func UserMessage(content string) Message   { return Message{Role: RoleUser, Content: content} }

const (
	SuccessLabel = "Success"
	FailLabel    = "Fail"
)

type Confusion string

const (
	TruePositive  Confusion = "TP"
	TrueNegative  Confusion = "TN"
	FalsePositive Confusion = "FP"
	FalseNegative Confusion = "FN"
)

func (c Confusion) Valid() bool {
	switch c {
	case TruePositive, TrueNegative, FalsePositive, FalseNegative:
		return true
	}
	return false
}

// Judgment is the verdict on one extraction, normally entered by a human.
type Judgment struct {
	Success   string
	Confusion Confusion
}

// Record is one ledger row. Prompt carries the full prompt text; the
// ledger doubles as the prompt store.
type Record struct {
	PaperID   string
	Parameter string
	Extracted string
	Truth     string
	Success   string
	Confusion string
	Prompt    string
	Model     string
	Iteration int
}

type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceL2     Distance = "l2"
	DistanceDot    Distance = "dot"
)

func ParseDistance(s string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DistanceCosine):
		return DistanceCosine, nil
	case string(DistanceL2):
		return DistanceL2, nil
	case string(DistanceDot):
		return DistanceDot, nil
	}
	return "", fmt.Errorf("unknown distance metric %q (want cosine, l2 or dot)", s)
}
