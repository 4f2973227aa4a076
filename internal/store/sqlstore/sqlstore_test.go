package sqlstore

import "testing"

func TestRebind(t *testing.T) {
	q := `UPDATE persons SET a=? WHERE b=? AND c=?`
	if got := (Dialect{}).Rebind(q); got != q {
		t.Fatalf("unnumbered dialect changed query: %s", got)
	}
	want := `UPDATE persons SET a=$1 WHERE b=$2 AND c=$3`
	if got := (Dialect{Numbered: true}).Rebind(q); got != want {
		t.Fatalf("Rebind = %s", got)
	}
}
