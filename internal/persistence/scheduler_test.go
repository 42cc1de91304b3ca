package persistence

import (
	"annolist/internal/structures"
	"annolist/internal/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(filePath string) *structures.Config {
	return &structures.Config{
		Persistence: structures.Persistence{
			FilePath:     filePath,
			SaveInterval: 1 * time.Second,
		},
	}
}

func TestScheduler_PersistAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panels.dat")
	conf := testConfig(path)
	metrics := testutil.NewMockMetrics()
	logger := &testutil.MockLogger{}

	fm := NewFileManager(&testutil.MockCompressor{}, seededService(t), logger)
	s := NewScheduler(conf, logger, fm, metrics)
	require.NoError(t, s.Persist())
	assert.Equal(t, 1, metrics.Persisted)

	target := newService()
	s2 := NewScheduler(conf, logger, NewFileManager(&testutil.MockCompressor{}, target, logger), metrics)
	require.NoError(t, s2.Restore())
	assert.Equal(t, 2, target.PanelCount())
}

func TestScheduler_Restore_NoFile(t *testing.T) {
	conf := testConfig(filepath.Join(t.TempDir(), "missing.dat"))
	logger := &testutil.MockLogger{}
	s := NewScheduler(conf, logger, NewFileManager(&testutil.MockCompressor{}, newService(), logger), testutil.NewMockMetrics())
	assert.NoError(t, s.Restore())
}

func TestScheduler_Persist_Error(t *testing.T) {
	conf := testConfig("/nonexistent/dir/panels.dat")
	logger := &testutil.MockLogger{}
	s := NewScheduler(conf, logger, NewFileManager(&testutil.MockCompressor{}, newService(), logger), testutil.NewMockMetrics())

	assert.Error(t, s.Persist())
	assert.Len(t, logger.Entries("error"), 1)
}

func TestScheduler_InitWritesPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panels.dat")
	logger := &testutil.MockLogger{}
	s := NewScheduler(testConfig(path), logger, NewFileManager(&testutil.MockCompressor{}, seededService(t), logger), testutil.NewMockMetrics())

	s.Init()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestScheduler_CloseReleasesCompressor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panels.dat")
	logger := &testutil.MockLogger{}
	compressor := &testutil.MockCompressor{}
	s := NewScheduler(testConfig(path), logger, NewFileManager(compressor, seededService(t), logger), testutil.NewMockMetrics())

	s.Init()
	require.NoError(t, s.Persist())
	s.Close()

	assert.True(t, compressor.Closed)
	assert.NotPanics(t, s.Stop)
}

func TestScheduler_StopWithoutInit(t *testing.T) {
	logger := &testutil.MockLogger{}
	s := NewScheduler(testConfig(""), logger, NewFileManager(&testutil.MockCompressor{}, newService(), logger), testutil.NewMockMetrics())
	assert.NotPanics(t, s.Stop)
}
