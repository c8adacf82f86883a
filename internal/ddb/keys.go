package ddb

import "fmt"

// Key prefixes for the single-table layout. These must not change: they are
// the wire format of every deployed table.
const (
	presentationPrefix = "PRESENTATION#"
	slidePrefix        = "SLIDE#"
	userPrefix         = "USER#"
	metadataSK         = "METADATA"
)

// MaxSlideIndex bounds the zero-padded slide sort key. Index 1000 and above
// would break the 3-digit padding and corrupt sort order, so it is rejected
// up front.
const MaxSlideIndex = 999

// PresentationPK constructs the partition key for a presentation.
func PresentationPK(id string) string { return presentationPrefix + id }

// MetadataSK returns the sort key of the metadata record.
func MetadataSK() string { return metadataSK }

// SlideSK constructs the sort key for the slide at the given index,
// zero-padded to three digits so lexicographic and numeric order coincide.
func SlideSK(index int) string { return fmt.Sprintf("%s%03d", slidePrefix, index) }

// UserGSIPK constructs the secondary-index partition key for an owner.
func UserGSIPK(userID string) string { return userPrefix + userID }
