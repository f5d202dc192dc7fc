package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PublicationType enumerates the kinds of scholarly output listed on the site.
type PublicationType string

const (
	PublicationJournal     PublicationType = "journal"
	PublicationConference  PublicationType = "conference"
	PublicationBookChapter PublicationType = "book-chapter"
	PublicationPreprint    PublicationType = "preprint"
	PublicationThesis      PublicationType = "thesis"
)

// PublicationTypes lists every valid type in display order.
var PublicationTypes = []PublicationType{
	PublicationJournal,
	PublicationConference,
	PublicationBookChapter,
	PublicationPreprint,
	PublicationThesis,
}

// Publication is one entry of the publications section.
type Publication struct {
	ID        bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title     string          `bson:"title" json:"title"`
	Authors   []string        `bson:"authors" json:"authors"`
	Type      PublicationType `bson:"type" json:"type"`
	Year      int             `bson:"year" json:"year"`
	Venue     string          `bson:"venue,omitempty" json:"venue,omitempty"`
	Tags      []string        `bson:"tags" json:"tags"`
	Citations int             `bson:"citations" json:"citations"`
	DOI       string          `bson:"doi,omitempty" json:"doi,omitempty"`
	URL       string          `bson:"url,omitempty" json:"url,omitempty"`
	Abstract  string          `bson:"abstract,omitempty" json:"abstract,omitempty"`
	Featured  bool            `bson:"featured" json:"featured"`
	CreatedBy bson.ObjectID   `bson:"created_by" json:"created_by"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updated_at"`
}

// PublicationStats summarises the collection for the dashboard.
type PublicationStats struct {
	Total          int64                     `json:"total"`
	TotalCitations int64                     `json:"total_citations"`
	ByType         map[PublicationType]int64 `json:"by_type"`
}
