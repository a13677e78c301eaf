package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/agbru/logfit/internal/confidence"
	"github.com/agbru/logfit/internal/confidence/mocks"
	apperrors "github.com/agbru/logfit/internal/errors"
)

// referenceRows is the example dataset: x, y, err_x, err_y.
const referenceRows = "0\t1\t0.5\t1\n10\t20\t0.5\t2\n20\t60\t0.5\t3\n30\t85\t0.5\t3\n40\t95\t0.5\t2\n"

func writeData(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte(referenceRows), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestApp(t *testing.T, args []string, opts ...AppOption) (*Application, *bytes.Buffer) {
	t.Helper()
	var errBuf bytes.Buffer
	opts = append([]AppOption{WithTracer(noop.NewTracerProvider().Tracer("test"))}, opts...)
	application, err := New(append([]string{"logfit", "--no-color"}, args...), &errBuf, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return application, &errBuf
}

// Run changes the global theme and log level, so these tests run serially.

func TestApplication_PromptAnsweredAfterTimeout(t *testing.T) {
	const limit = 100 * time.Millisecond
	dir := t.TempDir()
	pr, pw := io.Pipe()
	t.Cleanup(func() { pr.Close() })
	go func() {
		time.Sleep(3 * limit)
		_, _ = io.WriteString(pw, "2\n")
		pw.Close()
	}()

	application, errBuf := newTestApp(t,
		[]string{"-i", writeData(t, dir), "--plot", "", "--timeout", limit.String()},
		WithInput(pr))

	var out bytes.Buffer
	if code := application.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("Run() = %d, stderr:\n%s", code, errBuf.String())
	}
	if !strings.Contains(out.String(), "R-squared = ") {
		t.Errorf("report missing from output:\n%s", out.String())
	}
}

func TestApplication_RunWithPrompt(t *testing.T) {
	dir := t.TempDir()
	plotPath := filepath.Join(dir, "fit.png")
	application, _ := newTestApp(t,
		[]string{"-i", writeData(t, dir), "--plot", plotPath},
		WithInput(strings.NewReader("2\n")))

	var out bytes.Buffer
	if code := application.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("Run() = %d, output:\n%s", code, out.String())
	}

	for _, want := range []string{confidence.PromptText, "N_0 = ", "R-squared = ", "Covariance matrix:", "chart saved to: " + plotPath} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, out.String())
		}
	}
	if info, err := os.Stat(plotPath); err != nil || info.Size() == 0 {
		t.Errorf("chart not written: %v", err)
	}
}

func TestApplication_RunArtifacts(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "out", "report.json")
	metricsPath := filepath.Join(dir, "fit.prom")
	application, _ := newTestApp(t, []string{
		"-i", writeData(t, dir), "--sigma", "1.5", "--plot", "",
		"-o", reportPath, "--metrics-file", metricsPath, "-v",
	})

	var out bytes.Buffer
	if code := application.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("Run() = %d, output:\n%s", code, out.String())
	}
	if strings.Contains(out.String(), confidence.PromptText) {
		t.Error("--sigma should skip the prompt")
	}
	if !strings.Contains(out.String(), "Solver: ") {
		t.Error("verbose mode should print the solver summary")
	}

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(report), `"sigma": 1.5`) {
		t.Errorf("report does not record sigma:\n%s", report)
	}
	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	if !strings.Contains(string(prom), "logfit_ndf 3") {
		t.Errorf("metrics do not contain the NDF:\n%s", prom)
	}
}

func TestApplication_RunQuiet(t *testing.T) {
	dir := t.TempDir()
	application, errBuf := newTestApp(t, []string{"-i", writeData(t, dir), "--plot", "", "-q"},
		WithInput(strings.NewReader("2\n")))

	var out bytes.Buffer
	if code := application.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("Run() = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 || len(strings.Split(lines[0], "\t")) != 5 {
		t.Errorf("quiet output = %q, want one line with 5 fields", out.String())
	}
	if !strings.Contains(errBuf.String(), confidence.PromptText) {
		t.Error("quiet mode should prompt on the error writer")
	}
}

func TestApplication_RunErrors(t *testing.T) {
	dir := t.TempDir()
	data := writeData(t, dir)
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		opts     func(ctrl *gomock.Controller) []AppOption
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing dataset",
			args:     []string{"-i", filepath.Join(dir, "absent.txt"), "--sigma", "2"},
			wantCode: apperrors.ExitErrorData,
			wantErr:  "absent.txt",
		},
		{
			name: "invalid sigma answer",
			args: []string{"-i", data, "--plot", ""},
			opts: func(*gomock.Controller) []AppOption {
				return []AppOption{WithInput(strings.NewReader("abc\n"))}
			},
			wantCode: apperrors.ExitErrorInput,
			wantErr:  "invalid input",
		},
		{
			name: "provider canceled",
			args: []string{"-i", data, "--plot", ""},
			opts: func(ctrl *gomock.Controller) []AppOption {
				m := mocks.NewMockProvider(ctrl)
				m.EXPECT().Sigma(gomock.Any()).Return(0.0, context.Canceled)
				return []AppOption{WithConfidenceProvider(m)}
			},
			wantCode: apperrors.ExitErrorCanceled,
			wantErr:  "canceled",
		},
		{
			name:     "iteration limit",
			args:     []string{"-i", data, "--sigma", "2", "--max-iter", "1", "--plot", ""},
			wantCode: apperrors.ExitErrorFit,
			wantErr:  "Error",
		},
		{
			name:     "unwritable chart",
			args:     []string{"-i", data, "--sigma", "2", "--plot", filepath.Join(blocker, "fit.png")},
			wantCode: apperrors.ExitErrorGeneric,
			wantErr:  "export chart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []AppOption
			if tt.opts != nil {
				opts = tt.opts(gomock.NewController(t))
			}
			application, errBuf := newTestApp(t, tt.args, opts...)

			var out bytes.Buffer
			if code := application.Run(context.Background(), &out); code != tt.wantCode {
				t.Errorf("Run() = %d, want %d\nstderr:\n%s", code, tt.wantCode, errBuf.String())
			}
			if !strings.Contains(errBuf.String(), tt.wantErr) {
				t.Errorf("stderr does not contain %q:\n%s", tt.wantErr, errBuf.String())
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	var errBuf bytes.Buffer
	if _, err := New([]string{"logfit", "--help"}, &errBuf); !IsHelpError(err) {
		t.Errorf("--help: err = %v, want flag.ErrHelp", err)
	}
	_, err := New([]string{"logfit", "--timeout", "-1s"}, &errBuf)
	if apperrors.ExitCode(err) != apperrors.ExitErrorConfig {
		t.Errorf("negative timeout: err = %v", err)
	}
}

func TestNew_Options(t *testing.T) {
	application, _ := newTestApp(t, nil, WithConfidenceProvider(confidence.Fixed(3)))
	if got := application.sigmaProvider(&bytes.Buffer{}); got != confidence.Fixed(3) {
		t.Errorf("sigmaProvider() = %v, want injected provider", got)
	}
	if application.Config.DataFile != "data.txt" || application.Model.K != 100 {
		t.Errorf("defaults = %+v / %+v", application.Config, application.Model)
	}
}

func TestSigmaProvider(t *testing.T) {
	application, _ := newTestApp(t, []string{"--sigma", "2"})
	if got, ok := application.sigmaProvider(&bytes.Buffer{}).(confidence.Fixed); !ok || float64(got) != 2 {
		t.Errorf("--sigma provider = %#v", got)
	}

	application, _ = newTestApp(t, []string{"--tui"})
	if _, ok := application.sigmaProvider(&bytes.Buffer{}).(*confidence.Prompt); ok {
		t.Error("--tui should not use the plain prompt")
	}

	application, _ = newTestApp(t, nil)
	if _, ok := application.sigmaProvider(&bytes.Buffer{}).(*confidence.Prompt); !ok {
		t.Error("default provider should be the plain prompt")
	}
}

func TestVersion(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"--version"}, true},
		{[]string{"-i", "x", "-V"}, true},
		{[]string{"-i", "x"}, false},
		{[]string{"--", "--version"}, false},
	}
	for _, tt := range tests {
		if got := HasVersionFlag(tt.args); got != tt.want {
			t.Errorf("HasVersionFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}

	var buf bytes.Buffer
	PrintVersion(&buf)
	if !strings.HasPrefix(buf.String(), "logfit "+Version) {
		t.Errorf("PrintVersion() = %q", buf.String())
	}
}
