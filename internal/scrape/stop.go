package scrape

// StopReason records why the page loop ended. Only IsFailure reasons are
// reported as errors to the operator; every reason still produces metadata.
type StopReason int

const (
	StopNone StopReason = iota
	StopNoImage
	StopDownloadFailed
	StopInvalidImage
	StopDuplicate
	StopExpectedCount
	StopNoNext
	StopNextIssue
	StopMaxPages
	StopInterrupted
	StopOpenFailed
	StopWriteFailed
)

var stopNames = map[StopReason]string{
	StopNone:           "none",
	StopNoImage:        "no-image-found",
	StopDownloadFailed: "download-failed",
	StopInvalidImage:   "invalid-image",
	StopDuplicate:      "duplicate",
	StopExpectedCount:  "reached-expected-count",
	StopNoNext:         "no-next-control",
	StopNextIssue:      "next-issue-reached",
	StopMaxPages:       "max-pages",
	StopInterrupted:    "interrupted",
	StopOpenFailed:     "open-failed",
	StopWriteFailed:    "write-failed",
}

func (r StopReason) String() string {
	if s, ok := stopNames[r]; ok {
		return s
	}
	return "unknown"
}

func (r StopReason) IsFailure() bool {
	switch r {
	case StopDownloadFailed, StopInvalidImage, StopOpenFailed, StopWriteFailed:
		return true
	}
	return false
}
