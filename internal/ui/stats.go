package ui

import (
	"fmt"
	"sync/atomic"

	"github.com/brogergvhs/comicd/internal/util"
)

type Stats struct {
	TotalPages   atomic.Int64
	ResumedPages atomic.Int64
	TotalBytes   atomic.Int64
	TotalIssues  atomic.Int64
	FailedIssues atomic.Int64
}

func (s *Stats) Summary() string {
	return fmt.Sprintf("%d issue(s), %d new page(s), %d resumed, %s downloaded, %d failed",
		s.TotalIssues.Load(),
		s.TotalPages.Load(),
		s.ResumedPages.Load(),
		util.Human(s.TotalBytes.Load()),
		s.FailedIssues.Load(),
	)
}
