package domain

type ResourceKind int

const (
	ResourceSeries ResourceKind = iota
	ResourceChapter
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceSeries:
		return "title"
	case ResourceChapter:
		return "chapter"
	default:
		return "unknown"
	}
}

type SeriesInfo struct {
	ID          string
	Title       string
	Description string
	Year        int
	Author      string
	// CoverArtURL is empty when the series has no cover art.
	CoverArtURL string
}

type ChapterInfo struct {
	ID       string
	SeriesID string
	Number   float64
	Volume   int
	Title    string
}

// VolumeTree is the aggregate of a series in server order.
type VolumeTree []Volume

type Volume struct {
	Label    string
	Chapters []ChapterGroup
}

// ChapterGroup holds every release of one chapter number. IDs[0] is the
// canonical release, the rest are other scanlation groups.
type ChapterGroup struct {
	Number string
	IDs    []string
}

// Groups flattens the tree into its chapter groups, volumes first.
func (t VolumeTree) Groups() []ChapterGroup {
	var groups []ChapterGroup
	for _, volume := range t {
		groups = append(groups, volume.Chapters...)
	}

	return groups
}
