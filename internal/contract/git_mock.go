package contract

import (
	"context"

	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a testify mock of GitClient.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	callArgs := []any{ctx, repoPath}
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.Called(callArgs...)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// GetRepoHash implements the GitClient interface.
func (m *MockGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// ListCommits implements the GitClient interface.
func (m *MockGitClient) ListCommits(ctx context.Context, repoPath string) ([]schema.CommitRecord, error) {
	ret := m.Called(ctx, repoPath)
	commits, _ := ret.Get(0).([]schema.CommitRecord)
	return commits, ret.Error(1)
}

// GetCommitPatch implements the GitClient interface.
func (m *MockGitClient) GetCommitPatch(ctx context.Context, repoPath string, parent string, hash string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, parent, hash)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// ShowBlob implements the GitClient interface.
func (m *MockGitClient) ShowBlob(ctx context.Context, repoPath string, hash string, path string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, hash, path)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// ListFiles implements the GitClient interface.
func (m *MockGitClient) ListFiles(ctx context.Context, repoPath string) ([]string, error) {
	ret := m.Called(ctx, repoPath)
	files, _ := ret.Get(0).([]string)
	return files, ret.Error(1)
}
