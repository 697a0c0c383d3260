package index

// Document is one normalized document. Token order is significant: posting
// positions are offsets into Tokens.
type Document struct {
	ID     string   `json:"id"`
	Tokens []string `json:"tokens"`
}

// Posting holds the ascending, duplicate-free token positions of one term in
// one document.
type Posting struct {
	DocID     string
	Positions []int
}

// Frequency is the raw term frequency, the length of the position list.
func (p Posting) Frequency() int {
	return len(p.Positions)
}

// PostingList is ordered by DocID.
type PostingList []Posting

type DocStats struct {
	DocID    string
	DocLen   int
	TermFreq int
}
