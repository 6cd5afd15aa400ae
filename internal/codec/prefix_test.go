package codec

import "testing"

func TestPrefixTableLiteralApplyUnapply(t *testing.T) {
	tbl := NewPrefixTable([]PrefixMapping{
		{Original: "/SRC_ROOT", Replacement: "/Users/dev/project"},
	})

	applied := tbl.Apply("/SRC_ROOT/lib/a.swift")
	if applied != "/Users/dev/project/lib/a.swift" {
		t.Fatalf("Apply = %q", applied)
	}
	unapplied := tbl.Unapply(applied)
	if unapplied != "/SRC_ROOT/lib/a.swift" {
		t.Fatalf("Unapply(Apply(p)) = %q, want original", unapplied)
	}
}

func TestPrefixTableGlobMapping(t *testing.T) {
	tbl := NewPrefixTable([]PrefixMapping{
		{Original: "/SRC_ROOT/**", Replacement: "/build/out"},
	})
	if got := tbl.Apply("/SRC_ROOT/a/b.swift"); got != "/build/out/a/b.swift" {
		t.Fatalf("Apply with glob mapping = %q", got)
	}
}

func TestPrefixTableNoMatchIsIdentity(t *testing.T) {
	tbl := NewPrefixTable([]PrefixMapping{{Original: "/SRC_ROOT", Replacement: "/other"}})
	if got := tbl.Apply("/unrelated/path"); got != "/unrelated/path" {
		t.Fatalf("Apply on non-matching path changed it: %q", got)
	}
}

func TestPrefixTableRegisterAddsMapping(t *testing.T) {
	tbl := NewPrefixTable(nil)
	tbl.Register(PrefixMapping{Original: "/A", Replacement: "/B"})
	if got := tbl.Apply("/A/x"); got != "/B/x" {
		t.Fatalf("Apply after Register = %q", got)
	}
}

func TestPrefixTableFirstMatchWins(t *testing.T) {
	tbl := NewPrefixTable([]PrefixMapping{
		{Original: "/SRC_ROOT", Replacement: "/first"},
		{Original: "/SRC_ROOT", Replacement: "/second"},
	})
	if got := tbl.Apply("/SRC_ROOT/x"); got != "/first/x" {
		t.Fatalf("Apply did not prefer first matching mapping: %q", got)
	}
}
