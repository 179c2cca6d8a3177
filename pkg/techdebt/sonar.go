package techdebt

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/smellwalk/pkg/gitlib"
	"github.com/Sumatoshi-tech/smellwalk/pkg/toolexec"
)

// MetricDebt is the SonarQube metric holding remediation effort in minutes.
const MetricDebt = "sqale_index"

const (
	reportTaskFile     = "report-task.txt"
	defaultPageSize    = 500
	defaultPoll        = 2 * time.Second
	maxErrorBodyLength = 512
)

// Compute engine task statuses.
const (
	taskPending    = "PENDING"
	taskInProgress = "IN_PROGRESS"
	taskSuccess    = "SUCCESS"
)

var (
	// ErrNotScanned is returned by AnalysisFor before ExecuteScanning succeeded
	// for the revision.
	ErrNotScanned = errors.New("revision has not been scanned")
	// ErrScanFailed is returned when the server could not process a scan.
	ErrScanFailed = errors.New("sonarqube analysis failed")
	// ErrAPI is returned for unexpected SonarQube Web API responses.
	ErrAPI = errors.New("sonarqube api error")
)

// SonarConfig configures the SonarQube adapter.
type SonarConfig struct {
	ServerURL string
	Token     string
	// Scanner is the sonar-scanner executable.
	Scanner string
	// ProjectKey prefixes the per-revision project keys.
	ProjectKey string
	// BaseDir is the working tree being scanned.
	BaseDir string
	// WorkDir holds scanner working directories; empty uses the system temp dir.
	WorkDir string
	// Properties are "key=value" entries passed to the scanner as -D flags.
	Properties   []string
	PollInterval time.Duration
	// TaskTimeout bounds the wait for server-side processing.
	TaskTimeout time.Duration
	PageSize    int
}

// Sonar measures debt with sonar-scanner and the SonarQube Web API. Every
// revision is analysed as its own project so analyses never overwrite each
// other.
type Sonar struct {
	cfg    SonarConfig
	runner toolexec.Runner
	client *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	tasks map[gitlib.Hash]string
}

// NewSonar creates the adapter. A nil client uses http.DefaultClient.
func NewSonar(cfg SonarConfig, runner toolexec.Runner, client *http.Client, logger *slog.Logger) *Sonar {
	if cfg.Scanner == "" {
		cfg.Scanner = "sonar-scanner"
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPoll
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	if client == nil {
		client = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Sonar{
		cfg:    cfg,
		runner: runner,
		client: client,
		logger: logger,
		tasks:  make(map[gitlib.Hash]string),
	}
}

// ProjectKey returns the SonarQube project key of revision.
func (s *Sonar) ProjectKey(revision gitlib.Hash) string {
	return s.cfg.ProjectKey + "_" + revision.String()
}

// ExecuteScanning implements Scanner. It returns once the server has
// finished processing the analysis.
func (s *Sonar) ExecuteScanning(ctx context.Context, revision gitlib.Hash) error {
	workDir, err := os.MkdirTemp(s.cfg.WorkDir, "scannerwork-")
	if err != nil {
		return fmt.Errorf("create scanner work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	args := []string{
		"-Dsonar.projectKey=" + s.ProjectKey(revision),
		"-Dsonar.projectVersion=" + revision.Short(),
		"-Dsonar.projectBaseDir=" + s.cfg.BaseDir,
		"-Dsonar.working.directory=" + workDir,
		"-Dsonar.host.url=" + s.cfg.ServerURL,
	}

	for _, prop := range s.cfg.Properties {
		args = append(args, "-D"+prop)
	}

	var env []string
	if s.cfg.Token != "" {
		env = append(env, "SONAR_TOKEN="+s.cfg.Token)
	}

	s.logger.InfoContext(ctx, "running sonar-scanner", "revision", revision.String())

	_, err = s.runner.Run(ctx, toolexec.Command{Name: s.cfg.Scanner, Args: args, Dir: s.cfg.BaseDir, Env: env})
	if err != nil {
		return fmt.Errorf("sonar-scanner: %w", err)
	}

	taskID, err := readTaskID(filepath.Join(workDir, reportTaskFile))
	if err != nil {
		return err
	}

	err = s.waitForTask(ctx, taskID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks[revision] = taskID
	s.mu.Unlock()

	return nil
}

// readTaskID extracts ceTaskId from the scanner's report-task.txt.
func readTaskID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open scanner report: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if ok && strings.TrimSpace(key) == "ceTaskId" {
			return strings.TrimSpace(value), nil
		}
	}

	if err = sc.Err(); err != nil {
		return "", fmt.Errorf("read scanner report: %w", err)
	}

	return "", fmt.Errorf("%w: no ceTaskId in %s", ErrAPI, reportTaskFile)
}

type ceTaskResponse struct {
	Task struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"task"`
}

func (s *Sonar) waitForTask(ctx context.Context, taskID string) error {
	if s.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.cfg.TaskTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		var resp ceTaskResponse

		err := s.get(ctx, "/api/ce/task", url.Values{"id": {taskID}}, &resp)
		if err != nil {
			return err
		}

		switch resp.Task.Status {
		case taskSuccess:
			return nil
		case taskPending, taskInProgress:
		default:
			return fmt.Errorf("%w: task %s %s: %s", ErrScanFailed, taskID, resp.Task.Status, resp.Task.ErrorMessage)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for task %s: %w", taskID, ctx.Err())
		case <-ticker.C:
		}
	}
}

type componentTreeResponse struct {
	Paging struct {
		PageIndex int `json:"pageIndex"`
		PageSize  int `json:"pageSize"`
		Total     int `json:"total"`
	} `json:"paging"`
	Components []struct {
		Key      string `json:"key"`
		Path     string `json:"path"`
		Measures []struct {
			Metric string `json:"metric"`
			Value  string `json:"value"`
		} `json:"measures"`
	} `json:"components"`
}

// AnalysisFor implements Scanner.
func (s *Sonar) AnalysisFor(ctx context.Context, revision gitlib.Hash) (*Analysis, error) {
	s.mu.Lock()
	_, ok := s.tasks[revision]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotScanned, revision.Short())
	}

	analysis := &Analysis{Revision: revision, Debt: make(map[string]int64)}

	for page := 1; ; page++ {
		var resp componentTreeResponse

		err := s.get(ctx, "/api/measures/component_tree", url.Values{
			"component":  {s.ProjectKey(revision)},
			"metricKeys": {MetricDebt},
			"qualifiers": {"FIL"},
			"ps":         {strconv.Itoa(s.cfg.PageSize)},
			"p":          {strconv.Itoa(page)},
		}, &resp)
		if err != nil {
			return nil, err
		}

		for _, c := range resp.Components {
			for _, m := range c.Measures {
				if m.Metric != MetricDebt {
					continue
				}

				value, parseErr := strconv.ParseInt(m.Value, 10, 64)
				if parseErr != nil {
					return nil, fmt.Errorf("%w: %s of %s: %w", ErrAPI, MetricDebt, c.Key, parseErr)
				}

				analysis.Debt[c.Path] = value
			}
		}

		if len(resp.Components) == 0 || page*s.cfg.PageSize >= resp.Paging.Total {
			break
		}
	}

	s.logger.DebugContext(ctx, "fetched debt analysis", "revision", revision.String(), "files", len(analysis.Debt))

	return analysis, nil
}

func (s *Sonar) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.ServerURL+path+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if s.cfg.Token != "" {
		req.SetBasicAuth(s.cfg.Token, "")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))

		return fmt.Errorf("%w: %s: %s: %s", ErrAPI, path, resp.Status, strings.TrimSpace(string(body)))
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrAPI, path, err)
	}

	return nil
}
