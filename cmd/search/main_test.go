// Integration test of the search command, exercising cmd/testutils the
// way cmd/mysqldef/mysqldef_test.go exercises it against a real process
// instead of calling parseOptions directly.
package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	tu "github.com/mrold/sphinxgo/cmd/testutils"
)

func TestHelpExitsZero(t *testing.T) {
	out := tu.MustExecute(t, "go", "run", ".", "--help")
	assert.Contains(t, out, "query words")
}

func TestNoQueryExitsNonZero(t *testing.T) {
	out, err := tu.Execute("go", "run", ".")
	assert.Error(t, err)
	assert.True(t, strings.Contains(out, "No query given"))
}
