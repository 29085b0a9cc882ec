package utils

import (
	"testing"

	"github.com/Leitan123/SmartScholarsPAF/utils/dotenv"
	"github.com/Leitan123/SmartScholarsPAF/utils/flag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "a"))
	assert.False(t, ContainsString([]string{}, "a"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
}

func TestConcateUrlBaseAndRelativePath(t *testing.T) {
	require.Equal(t, "a.com/b", ConcateUrlBaseAndRelativePath("a.com", "b"))
	require.Equal(t, "a.com/b", ConcateUrlBaseAndRelativePath("a.com", "/b"))
	require.Equal(t, "a.com/b", ConcateUrlBaseAndRelativePath("a.com/", "b"))
	require.Equal(t, "a.com/b", ConcateUrlBaseAndRelativePath("a.com/", "/b"))
	require.Equal(t, "a.com/b", ConcateUrlBaseAndRelativePath("a.com//", "//b"))
}

func TestIsAbsoluteUrl(t *testing.T) {
	assert.True(t, IsAbsoluteUrl("http://localhost:9090/uploads/a.png"))
	assert.True(t, IsAbsoluteUrl("https://cdn.example.com/a.png"))
	assert.False(t, IsAbsoluteUrl("/uploads/a.png"))
	assert.False(t, IsAbsoluteUrl("uploads/a.png"))
}

func TestIsProduction(t *testing.T) {
	t.Setenv(dotenv.EnvName, dotenv.DevEnv)
	defer func(dev bool) { flag.IsDevelopment = dev }(flag.IsDevelopment)

	flag.IsDevelopment = true
	assert.False(t, IsProduction())
	assert.Equal(t, "development", ddEnv())

	flag.IsDevelopment = false
	assert.True(t, IsProduction())
	assert.Equal(t, "production", ddEnv())

	flag.IsDevelopment = true
	t.Setenv(dotenv.EnvName, dotenv.ProdEnv)
	assert.True(t, IsProduction())
}
