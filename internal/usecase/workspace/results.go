package workspace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lmapd/internal/domain"
)

// parseMeta rebuilds a Result from a .meta sidecar. Every value becomes
// an owned copy; an orphaned sidecar (no end/status records) yields a
// Result with a zero End and HasStatus false.
func parseMeta(r io.Reader) (*domain.Result, error) {
	res := &domain.Result{}
	cr := newCSVReader(r)
	var lastOption *domain.Option

	for {
		record, err := cr.readRecord(metaDelimiter)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if len(record) < 2 {
			continue
		}
		key, value := record[0], record[1]
		switch key {
		case metaKeyMagic:
			if !strings.HasPrefix(value, domain.SoftwareName+".") {
				return nil, fmt.Errorf("unexpected magic %q: %w", value, domain.ErrWorkspace)
			}
		case metaKeySchedule:
			res.Schedule = value
		case metaKeyAction:
			res.Action = value
		case metaKeyTask:
			res.Task = value
		case metaKeyOptionID:
			lastOption = &domain.Option{ID: value}
			res.Options = append(res.Options, lastOption)
		case metaKeyOptionName:
			if lastOption != nil {
				lastOption.Name = value
			}
		case metaKeyOptionValue:
			if lastOption != nil {
				lastOption.Value = value
			}
		case metaKeyTag:
			res.Tags.Add(value)
		case metaKeyEvent:
			res.Event = parseEpoch(value)
		case metaKeyStart:
			res.Start = parseEpoch(value)
		case metaKeyCycle:
			res.CycleNumber = value
		case metaKeyEnd:
			res.End = parseEpoch(value)
		case metaKeyStatus:
			if status, err := strconv.Atoi(value); err == nil {
				res.Status = status
				res.HasStatus = true
			}
		}
	}

	if res.Schedule == "" || res.Action == "" || res.Task == "" {
		return nil, fmt.Errorf("incomplete meta record: %w", domain.ErrWorkspace)
	}
	return res, nil
}

func parseEpoch(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

// parseTable reads the tabular rows of a .data file.
func parseTable(r io.Reader) (*domain.Table, error) {
	tab := &domain.Table{}
	cr := newCSVReader(r)
	for {
		record, err := cr.readRecord(metaDelimiter)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return tab, nil
			}
			return nil, err
		}
		row := &domain.Row{}
		for _, field := range record {
			row.AddValue(field)
		}
		tab.AddRow(row)
	}
}

// ReadResults scans dir (the current working directory for the report
// command) for .meta sidecars, parses each together with its twin .data
// file, and attaches the Results to cfg. Unreadable pairs are logged and
// skipped; the scan continues.
func ReadResults(cfg *domain.Config, dir string, logger *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("open workspace directory %s: %w", dir, domain.ErrWorkspace)
	}

	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		base, ok := strings.CutSuffix(name, ".meta")
		if !ok || !entry.Type().IsRegular() {
			continue
		}

		metaPath := filepath.Join(dir, name)
		mf, err := os.Open(metaPath)
		if err != nil {
			logger.Error("failed to open meta file", "path", metaPath, "error", err)
			errs = append(errs, err)
			continue
		}
		res, err := parseMeta(mf)
		mf.Close()
		if err != nil {
			logger.Warn("skipping unreadable meta file", "path", metaPath, "error", err)
			errs = append(errs, err)
			continue
		}

		dataPath := filepath.Join(dir, base+".data")
		df, err := os.Open(dataPath)
		if err != nil {
			logger.Error("failed to open data file", "path", dataPath, "error", err)
			errs = append(errs, err)
			continue
		}
		tab, err := parseTable(df)
		df.Close()
		if err != nil {
			logger.Warn("skipping unreadable data file", "path", dataPath, "error", err)
			errs = append(errs, err)
			continue
		}

		res.AddTable(tab)
		cfg.AddResult(res)
	}
	return errors.Join(errs...)
}
