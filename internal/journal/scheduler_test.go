package journal

import (
	"errors"
	"leadsync/internal/testutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_PersistAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.dat")
	conf := testConfig(path)
	logger := &testutil.MockLogger{}
	metrics := &testutil.MockMetrics{}

	source := newReportService()
	source.Put(sampleReport("P1", "r1"))
	s := NewScheduler(conf, logger, NewFileManager(&testutil.MockCompressor{}, source, logger), metrics)
	require.NoError(t, s.Persist())
	assert.Equal(t, 1, metrics.PersistCalls)

	target := newReportService()
	restored := NewScheduler(conf, logger, NewFileManager(&testutil.MockCompressor{}, target, logger), metrics)
	require.NoError(t, restored.Restore())
	assert.Len(t, target.Get("P1"), 1)
}

func TestScheduler_Restore_FileNotExist(t *testing.T) {
	logger := &testutil.MockLogger{}
	fm := NewFileManager(&testutil.MockCompressor{}, newReportService(), logger)
	s := NewScheduler(testConfig("/nonexistent/file.dat"), logger, fm, &testutil.MockMetrics{})
	assert.NoError(t, s.Restore())
}

func TestScheduler_Persist_WriteError(t *testing.T) {
	comp := &testutil.MockCompressor{
		CompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("compress error")
		},
	}
	logger := &testutil.MockLogger{}
	fm := NewFileManager(comp, newReportService(), logger)
	s := NewScheduler(testConfig(filepath.Join(t.TempDir(), "x.dat")), logger, fm, &testutil.MockMetrics{})

	assert.Error(t, s.Persist())
	assert.Equal(t, 1, logger.Count("error"))
}

func TestScheduler_StopNilCron(t *testing.T) {
	logger := &testutil.MockLogger{}
	fm := NewFileManager(&testutil.MockCompressor{}, newReportService(), logger)
	s := NewScheduler(testConfig("/tmp/unused.dat"), logger, fm, &testutil.MockMetrics{})
	// must not panic before Init
	s.Stop()
}

func TestScheduler_InitPersistsPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifecycle.dat")
	logger := &testutil.MockLogger{}
	fm := NewFileManager(&testutil.MockCompressor{}, newReportService(), logger)
	s := NewScheduler(testConfig(path), logger, fm, &testutil.MockMetrics{})

	s.Init()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)
}
