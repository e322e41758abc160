package validation

import "testing"

func TestIsNameValidForRegistration(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"cool_name-1", true},
		{"COOL", true},
		{"has spaces", false},
		{"", false},
		{"xn--abc", false},
	}
	for _, c := range cases {
		if got := IsNameValidForRegistration(c.name); got != c.want {
			t.Errorf("IsNameValidForRegistration(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsNameValidForFetch(t *testing.T) {
	if !IsNameValidForFetch("xn--abc123") {
		t.Fatalf("expected punycode-prefixed name to be valid for fetch")
	}
	if IsNameValidForFetch("has spaces") {
		t.Fatalf("expected name with spaces to be invalid")
	}
}

func TestIsAddressValid(t *testing.T) {
	if !IsAddressValid("krcgbmalxg") {
		t.Fatalf("expected valid v2 address to pass")
	}
	if IsAddressValid("tooshort") {
		t.Fatalf("expected short address to fail")
	}
	if IsAddressValid("kUPPERCASE1") {
		t.Fatalf("validation lowercases before matching, but this is still the wrong length")
	}
}

func TestIsARecordValid(t *testing.T) {
	if IsARecordValid("") {
		t.Fatalf("empty a-record should not validate through this helper")
	}
	if !IsARecordValid("example.com/path") {
		t.Fatalf("expected plain host/path a-record to validate")
	}
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	if IsARecordValid(string(long)) {
		t.Fatalf("expected a-record over 255 chars to be rejected")
	}
}

func TestParseMetaname(t *testing.T) {
	m, ok := ParseMetaname("meta@name.kro")
	if !ok {
		t.Fatalf("expected metaname token to parse")
	}
	if m.Metaname != "meta" || m.Name != "name" {
		t.Fatalf("unexpected parse: %+v", m)
	}

	m, ok = ParseMetaname("name.kro")
	if !ok {
		t.Fatalf("expected bare name token to parse")
	}
	if m.Metaname != "" || m.Name != "name" {
		t.Fatalf("unexpected parse of bare name: %+v", m)
	}

	if _, ok := ParseMetaname("name.kst"); ok {
		t.Fatalf(".kst suffix is not supported, expected no match")
	}
	if _, ok := ParseMetaname("not a metaname"); ok {
		t.Fatalf("expected garbage input to fail")
	}
}
