package config

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, uint32(128), c.Image.BlockSize)
	assert.Equal(t, uint32(20), c.Image.BlocksCount)
	assert.Equal(t, "", c.Image.Label)
	assert.False(t, c.Import.PreserveCase)
	assert.True(t, c.Import.SkipSpecial)
	assert.False(t, c.Debug)
}

func TestReadConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    func(t *testing.T, c *Configuration)
		wantErr bool
	}{
		{
			name:    "partial file keeps defaults",
			content: "image:\n  block_size: 512\n",
			want: func(t *testing.T, c *Configuration) {
				assert.Equal(t, uint32(512), c.Image.BlockSize)
				assert.Equal(t, uint32(20), c.Image.BlocksCount)
				assert.True(t, c.Import.SkipSpecial)
			},
		},
		{
			name:    "explicit false overrides a true default",
			content: "import:\n  skip_special: false\n  preserve_case: true\n",
			want: func(t *testing.T, c *Configuration) {
				assert.False(t, c.Import.SkipSpecial)
				assert.True(t, c.Import.PreserveCase)
			},
		},
		{
			name:    "environment is expanded",
			content: "image:\n  label: ${JFS_TEST_LABEL}\n",
			env:     map[string]string{"JFS_TEST_LABEL": "boot"},
			want: func(t *testing.T, c *Configuration) {
				assert.Equal(t, "boot", c.Image.Label)
			},
		},
		{
			name:    "invalid yaml",
			content: "image: [",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/jfs.yml", []byte(tt.content), 0644))

			c, err := ReadConfiguration(fs, "/jfs.yml")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.want(t, c)
		})
	}
}

func TestReadConfiguration_Missing(t *testing.T) {
	_, err := ReadConfiguration(afero.NewMemMapFs(), "/missing.yml")
	assert.True(t, os.IsNotExist(err))
}
