// Package git resolves pull-request coordinates from the local checkout when
// they are not supplied by configuration.
package git

import (
	"fmt"
	"strings"

	goGit "github.com/go-git/go-git/v5"
)

// Info reads repository metadata backed by go-git.
type Info struct {
	repoDir string
}

// NewInfo constructs a reader for the provided repository directory.
func NewInfo(repoDir string) *Info {
	return &Info{repoDir: repoDir}
}

// HeadSHA returns the full hash of the current HEAD commit.
func (i *Info) HeadSHA() (string, error) {
	repo, err := goGit.PlainOpenWithOptions(i.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

// OriginSlug returns the owner/repo slug parsed from the origin remote URL.
func (i *Info) OriginSlug() (string, error) {
	repo, err := goGit.PlainOpenWithOptions(i.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("resolve origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no URL")
	}

	slug, err := ParseSlug(urls[0])
	if err != nil {
		return "", fmt.Errorf("parse origin URL: %w", err)
	}
	return slug, nil
}

// ParseSlug extracts "owner/repo" from a remote URL in https
// (https://github.com/owner/repo.git) or ssh (git@github.com:owner/repo.git)
// form.
func ParseSlug(remoteURL string) (string, error) {
	trimmed := strings.TrimSuffix(remoteURL, ".git")

	switch {
	case strings.Contains(trimmed, "://"):
		// https://host/owner/repo
		parts := strings.SplitN(trimmed, "://", 2)
		segments := strings.Split(strings.Trim(parts[1], "/"), "/")
		if len(segments) < 3 {
			return "", fmt.Errorf("unrecognized remote URL %q", remoteURL)
		}
		return segments[len(segments)-2] + "/" + segments[len(segments)-1], nil
	case strings.Contains(trimmed, ":"):
		// git@host:owner/repo
		parts := strings.SplitN(trimmed, ":", 2)
		segments := strings.Split(strings.Trim(parts[1], "/"), "/")
		if len(segments) < 2 {
			return "", fmt.Errorf("unrecognized remote URL %q", remoteURL)
		}
		return segments[len(segments)-2] + "/" + segments[len(segments)-1], nil
	default:
		return "", fmt.Errorf("unrecognized remote URL %q", remoteURL)
	}
}
