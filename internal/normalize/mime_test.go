package normalize

import "testing"

func TestInferMIMEFromExtension(t *testing.T) {
	cases := map[string]string{
		"https://ex.com/a/b.png":     "image/png",
		"https://ex.com/a/b.jpg":     "image/jpeg",
		"https://ex.com/a/b.gif?q=1": "image/gif",
	}
	for in, want := range cases {
		if got := inferMIME(in); got != want {
			t.Fatalf("inferMIME(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInferMIMEUnknownExtension(t *testing.T) {
	if got := inferMIME("https://ex.com/a/b"); got != "" {
		t.Fatalf("expected empty MIME for extensionless URL, got %q", got)
	}
}
