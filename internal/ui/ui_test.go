package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(false).WithOutput(&buf)

	log.Debugf("hidden %d\n", 1)
	log.Infof("hello %s\n", "there")
	log.Warnf("careful\n")
	log.Errorf("boom\n")
	assert.Equal(t, "[INFO] hello there\n[WARN] careful\n[ERROR] boom\n", buf.String())

	buf.Reset()
	log.Debug = true
	log.Debugf("shown\n")
	assert.Equal(t, "[DEBUG] shown\n", buf.String())
}

func TestPagef(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(false).WithOutput(&buf)

	log.Pagef(4, PageOK, "%s\n", "page_004.jpg")
	log.Pagef(12, PageSkip, "exists\n")
	assert.Equal(t, "[004] [OK] page_004.jpg\n[012] [SKIP] exists\n", buf.String())
}

func TestNilProgressIsNoop(t *testing.T) {
	var pm *MPBProgressManager
	h := pm.Register("x")

	assert.Nil(t, h)
	assert.NotPanics(t, func() {
		h.SetTotal(3)
		h.Update(1, 10)
		h.MarkDone()
		pm.Close()
	})
}

func TestStatsSummary(t *testing.T) {
	var s Stats
	s.TotalIssues.Add(2)
	s.TotalPages.Add(10)
	s.ResumedPages.Add(3)
	s.TotalBytes.Add(2048)

	assert.Equal(t, "2 issue(s), 10 new page(s), 3 resumed, 2.00 KB downloaded, 0 failed", s.Summary())
}
