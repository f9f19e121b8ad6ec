package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"lmapd/internal/domain"
)

// IncomingDir is the per-schedule staging directory for inbound
// artefacts. The leading underscore keeps it out of the schedule's
// processing queue, which only ever contains regular files.
const IncomingDir = "_incoming"

// Manager owns the on-disk queue workspace: one directory per Schedule,
// one subdirectory per Action, and one _incoming staging area per
// Schedule. I/O errors during batch operations are logged and
// aggregated; a failing file never aborts the remainder of a batch.
type Manager struct {
	queuePath string
	logger    *slog.Logger
}

// New creates a Manager rooted at queuePath.
func New(queuePath string, logger *slog.Logger) *Manager {
	return &Manager{queuePath: queuePath, logger: logger}
}

// QueuePath returns the workspace root.
func (m *Manager) QueuePath() string { return m.queuePath }

// Init creates the directory tree for every schedule and action of cfg
// and records the workspace paths on the entities. Existing directories
// are not an error.
func (m *Manager) Init(cfg *domain.Config) error {
	if err := os.MkdirAll(m.queuePath, 0o700); err != nil {
		m.logger.Error("failed to mkdir", "path", m.queuePath, "error", err)
		return fmt.Errorf("mkdir %s: %w", m.queuePath, domain.ErrWorkspace)
	}
	var errs []error
	for _, sched := range cfg.Schedules {
		if sched.Name == "" {
			continue
		}
		sched.Workspace = filepath.Join(m.queuePath, SafeName(sched.Name))
		if err := m.mkdir(sched.Workspace); err != nil {
			errs = append(errs, err)
		}
		if err := m.mkdir(filepath.Join(sched.Workspace, IncomingDir)); err != nil {
			errs = append(errs, err)
		}
		for _, act := range sched.Actions {
			if act.Name == "" {
				continue
			}
			act.Workspace = filepath.Join(sched.Workspace, SafeName(act.Name))
			if err := m.mkdir(act.Workspace); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) mkdir(path string) error {
	if err := os.Mkdir(path, 0o700); err != nil && !errors.Is(err, fs.ErrExist) {
		m.logger.Error("failed to mkdir", "path", path, "error", err)
		return fmt.Errorf("mkdir %s: %w", path, domain.ErrWorkspace)
	}
	return nil
}

// CleanAll removes everything below the queue root. Partial failures are
// logged; the worst result is returned after the full walk.
func (m *Manager) CleanAll() error {
	entries, err := os.ReadDir(m.queuePath)
	if err != nil {
		m.logger.Error("failed to open queue directory", "path", m.queuePath, "error", err)
		return fmt.Errorf("open %s: %w", m.queuePath, domain.ErrWorkspace)
	}
	var errs []error
	for _, entry := range entries {
		path := filepath.Join(m.queuePath, entry.Name())
		if err := removeAll(path); err != nil {
			m.logger.Error("failed to remove", "path", path, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// removeAll removes path recursively with a post-order walk, continuing
// past individual failures.
func removeAll(path string) error {
	var errs []error
	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if !d.IsDir() {
			if err := os.Remove(p); err != nil {
				errs = append(errs, err)
			}
		}
		return nil
	})
	// Directories are removed bottom-up after their contents.
	var dirs []string
	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Remove(dirs[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ScheduleClean removes the regular files directly under the schedule
// directory: the consumed processing queue. Subdirectories and names
// beginning with `_` stay.
func (m *Manager) ScheduleClean(sched *domain.Schedule) error {
	if sched == nil || sched.Workspace == "" {
		return nil
	}
	entries, err := os.ReadDir(sched.Workspace)
	if err != nil {
		m.logger.Error("failed to open schedule workspace", "schedule", sched.Name, "error", err)
		return fmt.Errorf("open %s: %w", sched.Workspace, domain.ErrWorkspace)
	}
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "_") {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(sched.Workspace, entry.Name())
		if err := os.Remove(path); err != nil {
			m.logger.Error("failed to remove", "path", path, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ActionClean removes everything below the action's private workspace
// after its output has been linked to the destinations.
func (m *Manager) ActionClean(act *domain.Action) error {
	if act == nil || act.Workspace == "" {
		return nil
	}
	entries, err := os.ReadDir(act.Workspace)
	if err != nil {
		m.logger.Error("failed to open action workspace", "action", act.Name, "error", err)
		return fmt.Errorf("open %s: %w", act.Workspace, domain.ErrWorkspace)
	}
	var errs []error
	for _, entry := range entries {
		if err := removeAll(filepath.Join(act.Workspace, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ScheduleMove promotes complete .meta/.data pairs from the schedule's
// _incoming staging area into its processing queue. A pair is complete
// when both files exist as regular files under the same base name;
// incomplete pairs stay behind for the next cycle. The promotion links
// into the destination first and unlinks from the source only once both
// links exist, rolling back the first link if the second fails. Both
// directories are addressed through directory file descriptors so the
// operation stays anchored even if a parent is renamed.
func (m *Manager) ScheduleMove(sched *domain.Schedule) error {
	if sched == nil || sched.Workspace == "" {
		return nil
	}
	incoming := filepath.Join(sched.Workspace, IncomingDir)

	srcfd, err := unix.Open(incoming, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		m.logger.Error("failed to open incoming directory", "schedule", sched.Name, "error", err)
		return fmt.Errorf("open %s: %w", incoming, domain.ErrWorkspace)
	}
	defer unix.Close(srcfd)

	dstfd, err := unix.Open(sched.Workspace, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		m.logger.Error("failed to open schedule workspace", "schedule", sched.Name, "error", err)
		return fmt.Errorf("open %s: %w", sched.Workspace, domain.ErrWorkspace)
	}
	defer unix.Close(dstfd)

	entries, err := os.ReadDir(incoming)
	if err != nil {
		return fmt.Errorf("read %s: %w", incoming, domain.ErrWorkspace)
	}
	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			present[entry.Name()] = true
		}
	}

	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !present[name] {
			continue
		}
		base, ok := strings.CutSuffix(name, ".meta")
		if !ok {
			continue
		}
		data := base + ".data"
		if !present[data] {
			// Incomplete pair; re-examined next cycle.
			continue
		}
		if err := promotePair(srcfd, dstfd, data, name); err != nil {
			m.logger.Error("failed to promote artefact pair",
				"schedule", sched.Name, "base", base, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func promotePair(srcfd, dstfd int, data, meta string) error {
	if err := unix.Linkat(srcfd, data, dstfd, data, 0); err != nil && !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("link %s: %w", data, err)
	}
	if err := unix.Linkat(srcfd, meta, dstfd, meta, 0); err != nil && !errors.Is(err, unix.EEXIST) {
		unix.Unlinkat(dstfd, data, 0)
		return fmt.Errorf("link %s: %w", meta, err)
	}
	if err := unix.Unlinkat(srcfd, data, 0); err != nil {
		return fmt.Errorf("unlink %s: %w", data, err)
	}
	if err := unix.Unlinkat(srcfd, meta, 0); err != nil {
		return fmt.Errorf("unlink %s: %w", meta, err)
	}
	return nil
}

// ActionMove hardlinks every entry of the action's workspace into the
// destination schedule's _incoming staging area, so the consumer sees
// the artefacts only after the producer is done. When the destination is
// the producing action's own schedule, the links go directly into the
// active processing queue so that the next action of a sequential
// schedule can read them immediately.
func (m *Manager) ActionMove(act *domain.Action, from, to *domain.Schedule) error {
	if act == nil || act.Workspace == "" || from == nil || from.Name == "" ||
		to == nil || to.Workspace == "" {
		return nil
	}

	dst := filepath.Join(to.Workspace, IncomingDir)
	if to == from {
		dst = to.Workspace
	}

	entries, err := os.ReadDir(act.Workspace)
	if err != nil {
		m.logger.Error("failed to open action workspace", "action", act.Name, "error", err)
		return fmt.Errorf("open %s: %w", act.Workspace, domain.ErrWorkspace)
	}

	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		oldpath := filepath.Join(act.Workspace, name)
		newpath := filepath.Join(dst, name)
		if err := os.Link(oldpath, newpath); err != nil && !errors.Is(err, fs.ErrExist) {
			m.logger.Error("failed to link artefact",
				"from", oldpath, "to", newpath, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// artefactBase returns `<epoch>-<schedule>-<action>` for the action's
// current invocation.
func artefactBase(sched *domain.Schedule, act *domain.Action) string {
	return fmt.Sprintf("%d-%s-%s",
		act.LastInvocation.Unix(), SafeName(sched.Name), SafeName(act.Name))
}

// OpenData opens the .data file of the action's current invocation.
func (m *Manager) OpenData(sched *domain.Schedule, act *domain.Action, flags int) (*os.File, error) {
	path := filepath.Join(act.Workspace, artefactBase(sched, act)+".data")
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		m.logger.Error("failed to open data file", "path", path, "error", err)
		return nil, fmt.Errorf("open %s: %w", path, domain.ErrWorkspace)
	}
	return f, nil
}

// OpenMeta opens the .meta file of the action's current invocation.
func (m *Manager) OpenMeta(sched *domain.Schedule, act *domain.Action, flags int) (*os.File, error) {
	path := filepath.Join(act.Workspace, artefactBase(sched, act)+".meta")
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		m.logger.Error("failed to open meta file", "path", path, "error", err)
		return nil, fmt.Errorf("open %s: %w", path, domain.ErrWorkspace)
	}
	return f, nil
}

// Update walks every schedule and action workspace and refreshes the
// storage gauges from the allocated block counts of regular files.
func (m *Manager) Update(cfg *domain.Config) error {
	var errs []error
	for _, sched := range cfg.Schedules {
		if storage, err := diskUsage(sched.Workspace); err != nil {
			errs = append(errs, err)
		} else {
			sched.Storage = storage
		}
		for _, act := range sched.Actions {
			if storage, err := diskUsage(act.Workspace); err != nil {
				errs = append(errs, err)
			} else {
				act.Storage = storage
			}
		}
	}
	return errors.Join(errs...)
}

// diskUsage sums st_blocks*512 over the regular files below path. The
// accumulator travels with the walk; there is no shared state.
func diskUsage(path string) (uint64, error) {
	if path == "" {
		return 0, nil
	}
	var blocks uint64
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if st, ok := info.Sys().(*syscall.Stat_t); ok {
			blocks += uint64(st.Blocks)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", path, domain.ErrWorkspace)
	}
	return blocks * 512, nil
}
