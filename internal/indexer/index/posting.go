package index

// Posting records how often a term occurs in one section, per field.
type Posting struct {
	SectionID string `json:"section_id"`
	TitleTF   int    `json:"title_tf"`
	BodyTF    int    `json:"body_tf"`
}

type PostingList []Posting

// TermEntry pairs a term with its postings, used for index dumps.
type TermEntry struct {
	Term     string
	Postings PostingList
}

// SectionText is the part of a section the builder needs.
type SectionText struct {
	ID    string
	Title string
	Body  string
}
