package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mhahn/stacker-blueprints/pkg/blueprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Setenv("BLUEPRINTS_TEST_ENV", "from-env")
	r := NewResolver()
	r.Register("list", func(input string) (any, error) {
		return []any{input, input}, nil
	})

	tests := []struct {
		name    string
		value   any
		want    any
		wantErr error
	}{
		{name: "plain string", value: "no lookups", want: "no lookups"},
		{name: "custom", value: "${custom someInputValue}", want: "Custom Lookup: someInputValue"},
		{name: "embedded", value: "a-${env BLUEPRINTS_TEST_ENV}-b", want: "a-from-env-b"},
		{name: "whole value keeps type", value: "${list x}", want: []any{"x", "x"}},
		{name: "env default", value: "${env BLUEPRINTS_TEST_UNSET::fallback}", want: "fallback"},
		{
			name:  "database url",
			value: "${database_url provider=postgres,user=empire,password=pw,host=db,db_name=empire}",
			want:  "postgres://empire:pw@db/empire",
		},
		{
			name:  "nested",
			value: map[string]any{"a": []any{"${custom x}", 1}, "b": true},
			want:  map[string]any{"a": []any{"Custom Lookup: x", 1}, "b": true},
		},
		{name: "unknown type", value: "${output vpc::VpcId}", wantErr: ErrUnknownType},
		{name: "unset env", value: "${env BLUEPRINTS_TEST_UNSET}"},
		{name: "database url missing key", value: "${database_url provider=postgres}", wantErr: blueprint.ErrMissingRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.value)
			if tt.want == nil {
				require.Error(t, err)
				var lookupErr *Error
				assert.ErrorAs(t, err, &lookupErr)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Alias(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.Alias(map[string]string{"mine": "custom"}))
	got, err := r.Resolve("${mine v}")
	require.NoError(t, err)
	assert.Equal(t, "Custom Lookup: v", got)

	assert.ErrorIs(t, r.Alias(map[string]string{"x": "conf.empire.custom_lookup.handler"}), ErrUnknownType)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: value\n"), 0666))

	tests := []struct {
		codec string
		want  any
	}{
		{"plain", "key: value\n"},
		{"base64", "a2V5OiB2YWx1ZQo="},
		{"yaml", map[string]any{"key": "value"}},
	}
	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			got, err := File(tt.codec + ":" + path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := File("json:" + path)
	assert.Error(t, err)
	_, err = File(path)
	assert.Error(t, err)
}
