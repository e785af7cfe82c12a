package applog

import "testing"

func TestNewDefaultConfigProducesLogger(t *testing.T) {
	l, err := New(Default())
	if err != nil {
		t.Fatal(err)
	}
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	l.Sync()
}

func TestNewFileSinkWithoutPathErrors(t *testing.T) {
	_, err := New(Config{Level: "info", File: FileConfig{Enabled: true}})
	if err == nil {
		t.Fatal("expected error for file sink without path")
	}
}

func TestParseLevelKnownAndUnknown(t *testing.T) {
	cases := map[string]bool{"debug": true, "warn": true, "error": true, "info": true, "bogus": true}
	for lvl := range cases {
		// parseLevel never panics and always resolves to a valid level.
		_ = parseLevel(lvl)
	}
}
