package conv

import (
	"reflect"
	"testing"
)

func TestConfigGetters(t *testing.T) {
	m := map[string]any{
		"int":     3,
		"float":   2.5,
		"json":    float64(7),
		"flag":    true,
		"name":    "similar",
		"ids":     []any{"a", 12, nil},
		"strings": []string{"x"},
		"filters": []any{map[string]any{"type": "exclude"}, "skip"},
	}

	if got := ConfigGetInt(m, "int", 0); got != 3 {
		t.Errorf("ConfigGetInt(int) = %d", got)
	}
	if got := ConfigGetInt(m, "json", 0); got != 7 {
		t.Errorf("ConfigGetInt(json) = %d", got)
	}
	if got := ConfigGetInt(m, "missing", 9); got != 9 {
		t.Errorf("ConfigGetInt(missing) = %d", got)
	}
	if got := ConfigGetFloat64(m, "int", 0); got != 3 {
		t.Errorf("ConfigGetFloat64(int) = %v", got)
	}
	if got := ConfigGetFloat64(m, "flag", 0.5); got != 0.5 {
		t.Errorf("ConfigGetFloat64(flag) = %v, bool must fall back", got)
	}
	if got := ConfigGet(m, "name", ""); got != "similar" {
		t.Errorf("ConfigGet(name) = %q", got)
	}
	if got := ConfigGet(m, "int", "def"); got != "def" {
		t.Errorf("ConfigGet with wrong type = %q", got)
	}
	if got := SliceAnyToString(m["ids"]); !reflect.DeepEqual(got, []string{"a", "12"}) {
		t.Errorf("SliceAnyToString(ids) = %v", got)
	}
	if got := SliceAnyToString(m["strings"]); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("SliceAnyToString(strings) = %v", got)
	}
	if got := ConfigGetMaps(m, "filters"); len(got) != 1 || got[0]["type"] != "exclude" {
		t.Errorf("ConfigGetMaps(filters) = %v", got)
	}
}
