// Package pages supplies rendered page markup to the sync run. Where the
// markup comes from (saved snapshots on disk or in a bucket, a live fetch, or
// memory in tests) is hidden behind Source.
package pages

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Source returns the fully rendered markup for a page URL.
type Source interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Page is one fetched page.
type Page struct {
	URL     string
	Content string
}

// Sequential fetches urls one after another. Each page is handed to the
// consumer before the next fetch starts; iteration stops after the first error.
func Sequential(ctx context.Context, src Source, urls []string) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		for _, u := range urls {
			if err := ctx.Err(); err != nil {
				yield(Page{URL: u}, err)
				return
			}
			content, err := src.Fetch(ctx, u)
			if !yield(Page{URL: u, Content: content}, err) || err != nil {
				return
			}
		}
	}
}

// SnapshotName maps a page URL to the file name its snapshot is stored under:
// "transactions.html" for the payments page and "orders-<startIndex>.html"
// for order-history pages.
func SnapshotName(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("SnapshotName: %w", err)
	}

	switch {
	case strings.Contains(u.Path, "/yourpayments/transactions"):
		return "transactions.html", nil
	case strings.Contains(u.Path, "/order-history"), strings.Contains(u.Path, "/your-orders"):
		start := 0
		if s := u.Query().Get("startIndex"); s != "" {
			start, err = strconv.Atoi(s)
			if err != nil || start < 0 {
				return "", fmt.Errorf("SnapshotName: bad startIndex %q", s)
			}
		}
		return fmt.Sprintf("orders-%04d.html", start), nil
	default:
		return "", fmt.Errorf("SnapshotName: unrecognised page %q", pageURL)
	}
}

// MemorySource serves pages from a map keyed by URL.
type MemorySource map[string]string

func (m MemorySource) Fetch(_ context.Context, pageURL string) (string, error) {
	content, ok := m[pageURL]
	if !ok {
		return "", fmt.Errorf("MemorySource: no page for %s", pageURL)
	}
	return content, nil
}

// DirSource serves snapshots saved in a local directory.
type DirSource struct {
	Dir string
}

func (d DirSource) Fetch(_ context.Context, pageURL string) (string, error) {
	name, err := SnapshotName(pageURL)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(d.Dir, name))
	if err != nil {
		return "", fmt.Errorf("DirSource: %w", err)
	}
	return string(b), nil
}

// SavingSource writes every page it fetches from Source into Dir, so a live
// run can be replayed later with DirSource.
type SavingSource struct {
	Source Source
	Dir    string
}

func (s SavingSource) Fetch(ctx context.Context, pageURL string) (string, error) {
	content, err := s.Source.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	name, err := SnapshotName(pageURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("SavingSource: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, name), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("SavingSource: %w", err)
	}
	return content, nil
}
