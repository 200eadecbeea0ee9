package scanner

// FileRecord holds one scanned file's identity plus its classification
// outcome. Records are created by Scan, written once by a classification
// strategy, and never outlive the run that produced them.
type FileRecord struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Size       int64  `json:"size,omitempty"`
	ModTime    string `json:"mod_time,omitempty"`
	AccessTime string `json:"access_time,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`

	// Classification fields, zero until a strategy runs. Confidence is only
	// meaningful once Sensitive has been explicitly set.
	Sensitive  bool    `json:"sensitive"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// SensitiveCount returns the number of records currently marked sensitive.
func SensitiveCount(records []*FileRecord) int {
	count := 0
	for _, r := range records {
		if r.Sensitive {
			count++
		}
	}
	return count
}
