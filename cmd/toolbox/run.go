package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ramresume-backend/internal/extract"
	"ramresume-backend/internal/wizard"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk through the five-step toolbox interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		s := newSession(cmd.InOrStdin(), cmd.OutOrStdout(), client)
		return s.loop(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

var stepTitles = map[int]string{
	1: "Job description",
	2: "Keywords",
	3: "Resume",
	4: "Enhanced bullets",
	5: "Cover letter",
}

const runHelp = `commands:
  job              enter job description, company and title
  resume FILE      load resume text from a .txt or .pdf file
  submit           run the current step
  next | prev      move one step
  jump N           revisit step N
  show             print the current results
  finish           close the run from step 5
  leave            abandon the run
  quit             exit`

type session struct {
	in  *bufio.Reader
	out io.Writer
	wiz *wizard.Wizard
}

func newSession(in io.Reader, out io.Writer, backend wizard.Backend) *session {
	s := &session{in: bufio.NewReader(in), out: out}
	s.wiz = wizard.New(backend, wizard.ConfirmFunc(s.confirm))
	return s
}

func (s *session) loop(ctx context.Context) error {
	fmt.Fprintln(s.out, runHelp)
	for {
		st := s.wiz.State()
		if st.Active {
			fmt.Fprintf(s.out, "\n[step %d/%d: %s] > ", st.Step, wizard.LastStep, stepTitles[st.Step])
		} else {
			fmt.Fprint(s.out, "\n[done] > ")
		}
		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := s.dispatch(ctx, fields); err != nil {
			s.report(err)
		}
	}
}

func (s *session) dispatch(ctx context.Context, fields []string) error {
	switch fields[0] {
	case "help":
		fmt.Fprintln(s.out, runHelp)
	case "job":
		return s.enterJob()
	case "resume":
		if len(fields) < 2 {
			return fmt.Errorf("usage: resume FILE")
		}
		text, err := readResume(ctx, fields[1])
		if err != nil {
			return err
		}
		s.wiz.SetResume(text)
		fmt.Fprintf(s.out, "loaded %d words\n", len(strings.Fields(text)))
	case "submit":
		callCtx, cancel := context.WithTimeout(ctx, 3*time.Minute)
		defer cancel()
		if err := s.wiz.Submit(callCtx); err != nil {
			return err
		}
		s.show()
	case "next":
		return s.wiz.Next()
	case "prev":
		return s.wiz.Prev()
	case "jump":
		if len(fields) < 2 {
			return fmt.Errorf("usage: jump N")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid step %q", fields[1])
		}
		return s.wiz.JumpTo(n)
	case "show":
		s.show()
	case "finish":
		return s.wiz.Finish()
	case "leave":
		return s.wiz.Leave()
	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return nil
}

func (s *session) enterJob() error {
	fmt.Fprintln(s.out, "paste the job description, end with a line containing only '.'")
	jd, err := s.readBlock()
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, "company: ")
	company, err := s.readLine()
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, "job title: ")
	title, err := s.readLine()
	if err != nil {
		return err
	}
	s.wiz.SetJob(jd, company, title)
	return nil
}

func (s *session) show() {
	st := s.wiz.State()
	if st.ScanID != "" {
		fmt.Fprintf(s.out, "scan: %s\n", st.ScanID)
	}
	if len(st.Keywords) > 0 {
		fmt.Fprintf(s.out, "keywords: %s\n", strings.Join(st.Keywords, ", "))
	}
	for _, g := range st.Bullets {
		fmt.Fprintf(s.out, "\n%s\n", g.Company)
		for _, b := range g.Bullets {
			fmt.Fprintf(s.out, "  - %s\n", b)
		}
	}
	if st.CoverLetter != "" {
		fmt.Fprintf(s.out, "\n%s\n", st.CoverLetter)
	}
}

func (s *session) confirm(prompt string) bool {
	fmt.Fprintf(s.out, "%s [y/N] ", prompt)
	answer, err := s.readLine()
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (s *session) report(err error) {
	var apiErr *wizard.APIError
	switch {
	case wizard.IsKind(err, wizard.KindUsageLimit) && errors.As(err, &apiErr) && !apiErr.ResetDate.IsZero():
		fmt.Fprintf(s.out, "usage limit reached; resets %s\n", apiErr.ResetDate.Format(time.DateOnly))
	case wizard.IsKind(err, wizard.KindTermsRequired):
		fmt.Fprintln(s.out, "accept the terms of use in the web app first")
	case errors.As(err, &apiErr):
		fmt.Fprintf(s.out, "error: %s\n", apiErr.Message)
	default:
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
}

func (s *session) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *session) readBlock() (string, error) {
	var b strings.Builder
	for {
		line, err := s.in.ReadString('\n')
		if strings.TrimSpace(line) == "." {
			break
		}
		b.WriteString(line)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// readResume loads plain text, or extracts it when the file is a PDF.
func readResume(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if extract.IsPDF("", filepath.Base(path), data) {
		return extract.Text(ctx, data)
	}
	return string(data), nil
}
