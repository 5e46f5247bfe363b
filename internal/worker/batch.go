package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jwhan/marketbrief/internal/model"
)

// Auditor validates one briefing file against the loaded sources.
type Auditor interface {
	AuditFile(ctx context.Context, path string) (*model.ValidationResult, error)
}

// AuditJob re-validates a single briefing file.
type AuditJob struct {
	Path    string
	Auditor Auditor
}

// Execute runs the audit.
func (j *AuditJob) Execute(ctx context.Context) Result {
	result, err := j.Auditor.AuditFile(ctx, j.Path)
	return &AuditOutcome{
		Path:   j.Path,
		Result: result,
		Error:  err,
	}
}

// AuditOutcome is the result of one audit job.
type AuditOutcome struct {
	Path   string
	Result *model.ValidationResult
	Error  error
}

// GetError returns the job error, if any.
func (r *AuditOutcome) GetError() error {
	return r.Error
}

// BatchAuditor audits multiple briefing files concurrently.
type BatchAuditor struct {
	auditor     Auditor
	concurrency int
}

// NewBatchAuditor creates a batch auditor with the given concurrency.
func NewBatchAuditor(auditor Auditor, concurrency int) *BatchAuditor {
	return &BatchAuditor{auditor: auditor, concurrency: concurrency}
}

// ProcessPaths audits the given files concurrently and returns one
// outcome per path, in completion order.
func (b *BatchAuditor) ProcessPaths(ctx context.Context, paths []string) []*AuditOutcome {
	if len(paths) == 0 {
		return []*AuditOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&AuditJob{Path: path, Auditor: b.auditor})
	}

	results := pool.Wait()

	outcomes := make([]*AuditOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*AuditOutcome)
	}
	return outcomes
}

// ProcessFile reads briefing paths from a list file and audits them.
func (b *BatchAuditor) ProcessFile(ctx context.Context, listPath string) ([]*AuditOutcome, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read path list: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads file paths from a list, one per line. Blank
// lines and # comments are skipped; duplicates are dropped.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}
