package quota

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Change is a storage quota to apply to a database's warehouse
// directory. QuotaGB zero falls back to the enforcer's default.
type Change struct {
	Database string
	QuotaGB  float64
}

// Enforcer applies storage quotas. Applying the same change twice is
// harmless.
type Enforcer interface {
	Apply(ctx context.Context, change Change) error
}

const defaultQuotaGB = 100

// HDFS enforces quotas by invoking the hdfs CLI as the hdfs superuser.
type HDFS struct {
	logger hclog.Logger
}

func NewHDFS(logger hclog.Logger) *HDFS {
	return &HDFS{logger: logger.Named("quota")}
}

func (h *HDFS) Apply(ctx context.Context, change Change) error {
	quota := change.QuotaGB
	if quota <= 0 {
		quota = defaultQuotaGB
	}
	path := fmt.Sprintf("/user/hive/warehouse/%s.db", change.Database)
	args := []string{"dfsadmin", "-setSpaceQuota", fmt.Sprintf("%dG", int(quota)), path}

	cmd := exec.CommandContext(ctx, "hdfs", args...)
	cmd.Env = append(os.Environ(), "HADOOP_USER_NAME=hdfs")

	h.logger.Info("applying space quota", "database", change.Database, "command", "hdfs "+strings.Join(args, " "))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to set space quota on %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Recorder is an Enforcer for tests that remembers every change applied.
type Recorder struct {
	mu       sync.Mutex
	Applied  []Change
	FailWith error
}

func (r *Recorder) Apply(_ context.Context, change Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.Applied = append(r.Applied, change)
	return nil
}
