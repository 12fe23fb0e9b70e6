package model

// Course is one enrolled course package as returned by the platform.
type Course struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	ProgressRate float64 `json:"progressRate"`
	TaskNum      int     `json:"taskNum"`
	OriginID     string  `json:"originId"`
	XFile        XFile   `json:"xFile"`
}

// XFile carries the chapter directory reference of a course.
type XFile struct {
	DirID int64 `json:"dirId"`
}

// HasChapterDir reports whether the course carries the identifiers needed to
// list its chapters.
func (c Course) HasChapterDir() bool {
	return c.OriginID != "" && c.XFile.DirID != 0
}

// Chapter is one entry of a course's chapter list.
type Chapter struct {
	ID          string       `json:"_id"`
	Name        string       `json:"name"`
	RecordFiles []RecordFile `json:"recordFiles"`
}

// RecordFile points at a chapter recording. Either Location or LocationPath
// may be set depending on the recording's age.
type RecordFile struct {
	Location     string `json:"location"`
	LocationPath string `json:"locationPath"`
}

// HasRecording reports whether the chapter has at least one record file.
func (c Chapter) HasRecording() bool {
	return len(c.RecordFiles) > 0
}

// PlaybackLocation returns the CDN location of the first record file,
// preferring Location over LocationPath. Empty when neither is set or the
// chapter has no recording.
func (c Chapter) PlaybackLocation() string {
	if len(c.RecordFiles) == 0 {
		return ""
	}
	rf := c.RecordFiles[0]
	if rf.Location != "" {
		return rf.Location
	}
	return rf.LocationPath
}

// Profile is the account information returned during token validation and
// persisted alongside the token.
type Profile struct {
	Name  string `json:"name"`
	MyOrg Org    `json:"myOrg"`
}

// Org is the organisation a profile belongs to.
type Org struct {
	Name string `json:"name"`
}
