package workspace

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmapd/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *domain.Config {
	cfg := domain.NewConfig()
	cfg.Tasks = []*domain.Task{{Name: "echo", Program: "/bin/echo"}}
	cfg.Schedules = []*domain.Schedule{
		{
			Name:       "src",
			StartEvent: "go",
			Actions:    []*domain.Action{{Name: "collect", TaskName: "echo"}},
		},
		{
			Name:       "dst",
			StartEvent: "go",
			Actions:    []*domain.Action{{Name: "consume", TaskName: "echo"}},
		},
	}
	return cfg
}

func newTestManager(t *testing.T) (*Manager, *domain.Config) {
	t.Helper()
	m := New(t.TempDir(), testLogger())
	cfg := testConfig()
	require.NoError(t, m.Init(cfg))
	return m, cfg
}

func TestInitCreatesTree(t *testing.T) {
	m, cfg := newTestManager(t)

	for _, sched := range cfg.Schedules {
		require.NotEmpty(t, sched.Workspace)
		assert.DirExists(t, sched.Workspace)
		assert.DirExists(t, filepath.Join(sched.Workspace, IncomingDir))
		for _, act := range sched.Actions {
			require.NotEmpty(t, act.Workspace)
			assert.DirExists(t, act.Workspace)
		}
	}

	// Re-running init over an existing tree is not an error.
	require.NoError(t, m.Init(cfg))
}

func TestInitSanitisesNames(t *testing.T) {
	m := New(t.TempDir(), testLogger())
	cfg := domain.NewConfig()
	cfg.Schedules = []*domain.Schedule{{Name: "../x", StartEvent: "go"}}
	require.NoError(t, m.Init(cfg))

	assert.Equal(t, filepath.Join(m.QueuePath(), "%2E.%2Fx"), cfg.Schedules[0].Workspace)
	assert.DirExists(t, cfg.Schedules[0].Workspace)
}

func TestScheduleCleanKeepsPrivateEntries(t *testing.T) {
	m, cfg := newTestManager(t)
	sched := cfg.Schedules[0]

	queueFile := filepath.Join(sched.Workspace, "1-src-collect.data")
	require.NoError(t, os.WriteFile(queueFile, []byte("x\n"), 0o600))
	privateFile := filepath.Join(sched.Workspace, IncomingDir, "1-src-collect.data")
	require.NoError(t, os.WriteFile(privateFile, []byte("x\n"), 0o600))

	require.NoError(t, m.ScheduleClean(sched))

	assert.NoFileExists(t, queueFile)
	assert.FileExists(t, privateFile, "entries under _incoming stay")
	assert.DirExists(t, cfg.Schedules[0].Actions[0].Workspace)
}

func TestScheduleCleanIdempotent(t *testing.T) {
	m, cfg := newTestManager(t)
	require.NoError(t, m.ScheduleClean(cfg.Schedules[0]))
	require.NoError(t, m.ScheduleClean(cfg.Schedules[0]))
}

func TestActionClean(t *testing.T) {
	m, cfg := newTestManager(t)
	act := cfg.Schedules[0].Actions[0]

	require.NoError(t, os.WriteFile(filepath.Join(act.Workspace, "junk"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(act.Workspace, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(act.Workspace, "sub", "deep"), []byte("x"), 0o600))

	require.NoError(t, m.ActionClean(act))

	entries, err := os.ReadDir(act.Workspace)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanAll(t *testing.T) {
	m, cfg := newTestManager(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Schedules[0].Workspace, "stale.data"), []byte("x"), 0o600))

	require.NoError(t, m.CleanAll())
	entries, err := os.ReadDir(m.QueuePath())
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The tree can be rebuilt afterwards.
	require.NoError(t, m.Init(cfg))
}

func TestScheduleMovePromotesCompletePairs(t *testing.T) {
	m, cfg := newTestManager(t)
	sched := cfg.Schedules[0]
	incoming := filepath.Join(sched.Workspace, IncomingDir)

	require.NoError(t, os.WriteFile(filepath.Join(incoming, "7-src-collect.data"), []byte("d\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(incoming, "7-src-collect.meta"), []byte("m\n"), 0o600))
	// Orphan .data without a sibling .meta stays behind.
	require.NoError(t, os.WriteFile(filepath.Join(incoming, "9-src-collect.data"), []byte("d\n"), 0o600))

	require.NoError(t, m.ScheduleMove(sched))

	assert.FileExists(t, filepath.Join(sched.Workspace, "7-src-collect.data"))
	assert.FileExists(t, filepath.Join(sched.Workspace, "7-src-collect.meta"))
	assert.NoFileExists(t, filepath.Join(incoming, "7-src-collect.data"))
	assert.NoFileExists(t, filepath.Join(incoming, "7-src-collect.meta"))

	assert.FileExists(t, filepath.Join(incoming, "9-src-collect.data"),
		"incomplete pair must stay in _incoming")
	assert.NoFileExists(t, filepath.Join(sched.Workspace, "9-src-collect.data"))
}

func TestScheduleMoveRepeatedCalls(t *testing.T) {
	m, cfg := newTestManager(t)
	sched := cfg.Schedules[0]
	incoming := filepath.Join(sched.Workspace, IncomingDir)

	require.NoError(t, os.WriteFile(filepath.Join(incoming, "9-src-collect.data"), []byte("d\n"), 0o600))
	require.NoError(t, m.ScheduleMove(sched))
	require.NoError(t, m.ScheduleMove(sched))
	assert.FileExists(t, filepath.Join(incoming, "9-src-collect.data"))

	// Completing the pair later promotes it.
	require.NoError(t, os.WriteFile(filepath.Join(incoming, "9-src-collect.meta"), []byte("m\n"), 0o600))
	require.NoError(t, m.ScheduleMove(sched))
	assert.FileExists(t, filepath.Join(sched.Workspace, "9-src-collect.data"))
}

func TestActionMoveToIncoming(t *testing.T) {
	m, cfg := newTestManager(t)
	src, dst := cfg.Schedules[0], cfg.Schedules[1]
	act := src.Actions[0]

	require.NoError(t, os.WriteFile(filepath.Join(act.Workspace, "3-src-collect.data"), []byte("d\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(act.Workspace, "3-src-collect.meta"), []byte("m\n"), 0o600))

	require.NoError(t, m.ActionMove(act, src, dst))

	// The consumer sees the artefacts in its staging area only; its
	// processing queue is untouched until its own start fires.
	assert.FileExists(t, filepath.Join(dst.Workspace, IncomingDir, "3-src-collect.data"))
	assert.FileExists(t, filepath.Join(dst.Workspace, IncomingDir, "3-src-collect.meta"))
	assert.NoFileExists(t, filepath.Join(dst.Workspace, "3-src-collect.data"))

	// The producer still holds its hardlinks until action-clean.
	assert.FileExists(t, filepath.Join(act.Workspace, "3-src-collect.data"))
}

func TestActionMoveSelfBypassesIncoming(t *testing.T) {
	m, cfg := newTestManager(t)
	src := cfg.Schedules[0]
	act := src.Actions[0]

	require.NoError(t, os.WriteFile(filepath.Join(act.Workspace, "3-src-collect.data"), []byte("d\n"), 0o600))

	require.NoError(t, m.ActionMove(act, src, src))

	assert.FileExists(t, filepath.Join(src.Workspace, "3-src-collect.data"),
		"self destination goes directly into the processing queue")
	assert.NoFileExists(t, filepath.Join(src.Workspace, IncomingDir, "3-src-collect.data"))
}

func TestMetaRoundTrip(t *testing.T) {
	m, cfg := newTestManager(t)
	sched := cfg.Schedules[0]
	act := sched.Actions[0]
	task := cfg.Tasks[0]

	task.Options = []*domain.Option{{ID: "target", Name: "-t", Value: "example.net"}}
	task.Tags.Add("latency")
	sched.Tags.Add("cycle-a")
	act.Tags.Add("probe")
	act.Options = []*domain.Option{{ID: "count", Name: "-c", Value: "3"}}

	sched.LastInvocation = time.Unix(1704067200, 0)
	sched.CycleNumber = 1704067200
	act.LastInvocation = time.Unix(1704067201, 0)

	require.NoError(t, m.MetaWriteStart(sched, act, task))

	data, err := m.OpenData(sched, act, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	require.NoError(t, err)
	_, err = data.WriteString("42;ok\n13;\"semi;colon\"\n")
	require.NoError(t, err)
	require.NoError(t, data.Close())

	act.LastCompletion = time.Unix(1704067204, 0)
	act.LastStatus = 0
	require.NoError(t, m.MetaWriteEnd(sched, act))

	readCfg := domain.NewConfig()
	require.NoError(t, ReadResults(readCfg, act.Workspace, testLogger()))
	require.Len(t, readCfg.Results, 1)

	res := readCfg.Results[0]
	assert.Equal(t, "src", res.Schedule)
	assert.Equal(t, "collect", res.Action)
	assert.Equal(t, "echo", res.Task)
	assert.Equal(t, int64(1704067200), res.Event.Unix())
	assert.Equal(t, int64(1704067201), res.Start.Unix())
	assert.Equal(t, int64(1704067204), res.End.Unix())
	assert.True(t, res.HasStatus)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, "20240101.000000", res.CycleNumber)
	assert.Equal(t, domain.Tags{"latency", "cycle-a", "probe"}, res.Tags)

	require.Len(t, res.Options, 2)
	assert.Equal(t, "target", res.Options[0].ID)
	assert.Equal(t, "-t", res.Options[0].Name)
	assert.Equal(t, "example.net", res.Options[0].Value)
	assert.Equal(t, "count", res.Options[1].ID)

	require.Len(t, res.Tables, 1)
	require.Len(t, res.Tables[0].Rows, 2)
	assert.Equal(t, "42", res.Tables[0].Rows[0].Values[0].Value)
	assert.Equal(t, "ok", res.Tables[0].Rows[0].Values[1].Value)
	assert.Equal(t, "semi;colon", res.Tables[0].Rows[1].Values[1].Value)
}

func TestOrphanMetaYieldsOpenResult(t *testing.T) {
	m, cfg := newTestManager(t)
	sched := cfg.Schedules[0]
	act := sched.Actions[0]

	sched.LastInvocation = time.Unix(100, 0)
	act.LastInvocation = time.Unix(100, 0)
	require.NoError(t, m.MetaWriteStart(sched, act, cfg.Tasks[0]))

	data, err := m.OpenData(sched, act, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	require.NoError(t, err)
	require.NoError(t, data.Close())

	// No MetaWriteEnd: the daemon crashed between start and reap.
	readCfg := domain.NewConfig()
	require.NoError(t, ReadResults(readCfg, act.Workspace, testLogger()))
	require.Len(t, readCfg.Results, 1)
	assert.False(t, readCfg.Results[0].HasStatus)
	assert.True(t, readCfg.Results[0].End.IsZero())
}

func TestUpdateStorage(t *testing.T) {
	m, cfg := newTestManager(t)
	sched := cfg.Schedules[0]

	require.NoError(t, os.WriteFile(
		filepath.Join(sched.Workspace, "1-src-collect.data"), make([]byte, 4096), 0o600))

	require.NoError(t, m.Update(cfg))
	assert.NotZero(t, sched.Storage)
	assert.Zero(t, cfg.Schedules[1].Storage)
}
