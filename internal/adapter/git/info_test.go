package git_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdekker/sonarlens/internal/adapter/git"
)

func TestParseSlug(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "https with .git suffix",
			url:  "https://github.com/octocat/hello-world.git",
			want: "octocat/hello-world",
		},
		{
			name: "https without suffix",
			url:  "https://github.com/octocat/hello-world",
			want: "octocat/hello-world",
		},
		{
			name: "ssh form",
			url:  "git@github.com:octocat/hello-world.git",
			want: "octocat/hello-world",
		},
		{
			name: "ssh protocol form",
			url:  "ssh://git@github.com/octocat/hello-world.git",
			want: "octocat/hello-world",
		},
		{
			name:    "bare host",
			url:     "https://github.com",
			wantErr: true,
		},
		{
			name:    "not a remote URL",
			url:     "hello-world",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug, err := git.ParseSlug(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, slug)
		})
	}
}

func TestHeadSHA_NotARepo(t *testing.T) {
	info := git.NewInfo(t.TempDir())

	_, err := info.HeadSHA()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open repo")
}
