package simxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID string `xml:"id,attr"`
}

func TestWalkCollectsNestedElements(t *testing.T) {
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?>
<root>
  <item id="a"/>
  <group><item id="b"/></group>
  <other id="x"/>
</root>`

	var items []item
	err := Walk(strings.NewReader(doc), map[string]ElementFunc{"item": Collect(&items)})
	require.NoError(t, err)
	assert.Equal(t, []item{{"a"}, {"b"}}, items)
}

func TestWalkReportsSyntaxErrors(t *testing.T) {
	var items []item
	err := Walk(strings.NewReader(`<root><item id="a"></root>`), map[string]ElementFunc{"item": Collect(&items)})
	assert.Error(t, err)
}
