package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramresume-backend/internal/wizard"
)

type fakeBackend struct {
	keywordCalls int
	err          error
}

func (f *fakeBackend) ExtractKeywords(_ context.Context, jd, company, title string) ([]string, string, error) {
	f.keywordCalls++
	if f.err != nil {
		return nil, "", f.err
	}
	return []string{"go", "postgres"}, "scan-1", nil
}

func (f *fakeBackend) EnhanceResume(_ context.Context, resume, jd, scanID string) ([]wizard.BulletGroup, error) {
	return []wizard.BulletGroup{{Company: "Acme", Bullets: []string{"Built services in Go"}}}, nil
}

func (f *fakeBackend) DraftCoverLetter(_ context.Context, resume, jd, scanID string) (string, error) {
	return "Dear hiring manager", nil
}

func runScript(t *testing.T, backend wizard.Backend, script string) (*session, string) {
	t.Helper()
	var out bytes.Buffer
	s := newSession(strings.NewReader(script), &out, backend)
	require.NoError(t, s.loop(context.Background()))
	return s, out.String()
}

func TestSessionWalksAllSteps(t *testing.T) {
	dir := t.TempDir()
	resumePath := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(resumePath, []byte("Built services at Acme"), 0o644))

	script := strings.Join([]string{
		"job",
		"Backend engineer, Go and Postgres",
		".",
		"Acme",
		"Engineer",
		"submit",
		"next",
		"resume " + resumePath,
		"submit",
		"submit",
		"finish",
		"quit",
	}, "\n") + "\n"

	s, out := runScript(t, &fakeBackend{}, script)
	st := s.wiz.State()
	assert.False(t, st.Active)
	assert.Equal(t, wizard.DoneStep, st.Step)
	assert.Equal(t, "scan-1", st.ScanID)
	assert.Equal(t, "Dear hiring manager", st.CoverLetter)
	assert.Contains(t, out, "keywords: go, postgres")
	assert.Contains(t, out, "  - Built services in Go")
}

func TestSessionDeclinedResubmitKeepsResults(t *testing.T) {
	backend := &fakeBackend{}
	script := "job\nJD\n.\nAcme\nEngineer\nsubmit\njump 1\nsubmit\nn\nquit\n"

	s, _ := runScript(t, backend, script)
	st := s.wiz.State()
	assert.Equal(t, 1, backend.keywordCalls)
	assert.Equal(t, []string{"go", "postgres"}, st.Keywords)
	assert.Equal(t, 1, st.Step)
}

func TestSessionReportsUsageLimit(t *testing.T) {
	reset := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	backend := &fakeBackend{err: &wizard.APIError{Kind: wizard.KindUsageLimit, Status: 403, ResetDate: reset}}

	_, out := runScript(t, backend, "job\nJD\n.\n\n\nsubmit\nquit\n")
	assert.Contains(t, out, "usage limit reached; resets 2026-11-01")
}

func TestSessionUnknownCommand(t *testing.T) {
	_, out := runScript(t, &fakeBackend{}, "dance\n")
	assert.Contains(t, out, `unknown command "dance"`)
}

func TestReadResumeMissingFile(t *testing.T) {
	_, err := readResume(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
