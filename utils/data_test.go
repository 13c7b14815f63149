package utils

import (
	"testing"

	"github.com/elliotchance/orderedmap/v2"
)

func TestOrderedMapToStringKeepsInsertionOrder(t *testing.T) {
	m := orderedmap.NewOrderedMap[string, any]()
	m.Set("zeta", 1)
	m.Set("alpha", true)
	if s := OrderedMapToString(m); s != "[zeta=1 alpha=true]" {
		t.Fatalf("unexpected string %q", s)
	}
	attrs := OrderedMapToAttrs(m)
	if len(attrs) != 4 || attrs[0] != "zeta" || attrs[2] != "alpha" {
		t.Fatalf("unexpected attrs %v", attrs)
	}
}
