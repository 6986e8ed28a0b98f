package types

// PictureTypeFrontCover is the embedded picture role of the primary album artwork.
const PictureTypeFrontCover = 3

// Picture is one embedded picture entry of an audio container
type Picture struct {
	TypeCode int    `json:"typeCode"`
	MIME     string `json:"mime,omitempty"`
}

// AudioFileRecord holds the container metadata of one scanned audio file.
// It is built fresh for every validation run and never modified afterwards.
type AudioFileRecord struct {
	Filename      string    `json:"filename"` // base name only
	SampleRateHz  int       `json:"sampleRateHz"`
	ChannelCount  int       `json:"channelCount"`
	BitsPerSample int       `json:"bitsPerSample"`
	Pictures      []Picture `json:"pictures"`
	Tags          *TagMap   `json:"tags"`
}

// HasPicture reports whether any embedded picture carries the given type code
func (r *AudioFileRecord) HasPicture(typeCode int) bool {
	for _, p := range r.Pictures {
		if p.TypeCode == typeCode {
			return true
		}
	}
	return false
}

// ManifestEntry is one entry of an ArDrive folder listing
type ManifestEntry struct {
	EntityType string `json:"entityType"`
	Path       string `json:"path"`
	DataTxID   string `json:"dataTxId"`
}
