package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"outreach_backend/internal/leads/repository"
	"outreach_backend/platform/sanitize"
)

type rowError struct {
	line int
	err  error
}

type parseResult struct {
	rows    []repository.ImportRow
	notUS   int
	invalid []rowError
}

var requiredColumns = []string{"instagram_handle"}

// parseLeadCSV reads a scraper export. Columns are matched by header name, so
// extra or reordered columns are fine. Duplicate handles keep the last row.
func parseLeadCSV(r io.Reader, includeNonUS bool) (parseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return parseResult{}, fmt.Errorf("empty csv")
		}
		return parseResult{}, err
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return parseResult{}, fmt.Errorf("missing column %q", name)
		}
	}

	var res parseResult
	index := make(map[string]int)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.invalid = append(res.invalid, rowError{line: line, err: err})
			continue
		}

		row, err := toImportRow(record, cols)
		if err != nil {
			res.invalid = append(res.invalid, rowError{line: line, err: err})
			continue
		}
		if !row.LikelyUS && !includeNonUS {
			res.notUS++
			continue
		}
		if i, ok := index[row.InstagramHandle]; ok {
			res.rows[i] = row
			continue
		}
		index[row.InstagramHandle] = len(res.rows)
		res.rows = append(res.rows, row)
	}
	return res, nil
}

func toImportRow(record []string, cols map[string]int) (repository.ImportRow, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	handle := strings.ToLower(strings.TrimPrefix(get("instagram_handle"), "@"))
	if handle == "" {
		return repository.ImportRow{}, fmt.Errorf("empty instagram_handle")
	}

	row := repository.ImportRow{
		InstagramHandle:  handle,
		FullName:         sanitize.Line(get("full_name")),
		Bio:              sanitize.Text(get("bio")),
		Website:          get("website"),
		BusinessCategory: sanitize.Line(get("business_category")),
	}

	var err error
	ints := []struct {
		name string
		dst  *int
	}{
		{"follower_count", &row.FollowerCount},
		{"following_count", &row.FollowingCount},
		{"post_count", &row.PostCount},
		{"score", &row.Score},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(get(f.name)); err != nil {
			return repository.ImportRow{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"is_business_account", &row.IsBusinessAccount},
		{"is_verified", &row.IsVerified},
		{"likely_us", &row.LikelyUS},
	}
	for _, f := range bools {
		if *f.dst, err = parseBool(get(f.name)); err != nil {
			return repository.ImportRow{}, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return row, nil
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	raw = strings.ReplaceAll(raw, ",", "")
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f), nil
	}
	return 0, fmt.Errorf("not a number: %q", raw)
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "false", "f", "0", "no", "n":
		return false, nil
	case "true", "t", "1", "yes", "y":
		return true, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}
