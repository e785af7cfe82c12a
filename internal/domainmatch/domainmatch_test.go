package domainmatch

import "testing"

func TestCleanDomainStripsEachPrefixOnce(t *testing.T) {
	got := CleanDomain("www.old.example.com", []string{"www.", "old."})
	if got != "example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanDomainLeavesNonMatchingHostUnchanged(t *testing.T) {
	got := CleanDomain("example.com", []string{"www."})
	if got != "example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanDomainDoesNotLoopOnOverlappingPrefixes(t *testing.T) {
	got := CleanDomain("wwwwww.example.com", []string{"www", "www"})
	if got != "wwww.example.com" {
		t.Fatalf("got %q, want single pass over both listed prefixes", got)
	}
}

func TestPrefixSetNilForEmptyInput(t *testing.T) {
	if NewPrefixSet(nil) != nil {
		t.Fatal("expected nil PrefixSet for empty input")
	}
	if NewPrefixSet([]string{""}) != nil {
		t.Fatal("expected nil PrefixSet when only empty string given")
	}
}

func TestPrefixSetMatch(t *testing.T) {
	ps := NewPrefixSet([]string{"https://mail.google.com/mail/", "https://trello.com/c/"})
	cases := map[string]bool{
		"http://example.com/index.html":           false,
		"https://mail.google.com/mail/u/0/#inbox": true,
		"https://trello.com/c/a12def34":           true,
	}
	for url, want := range cases {
		if got := ps.Match(url); got != want {
			t.Errorf("Match(%q) = %v, want %v", url, got, want)
		}
	}
}

func TestPrefixSetNilReceiverMatchesNothing(t *testing.T) {
	var ps *PrefixSet
	if ps.Match("anything") {
		t.Fatal("nil PrefixSet must never match")
	}
}
