package format

import "testing"

func TestEscapeMD(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a_b", `a\_b`},
		{"*bold* [x]", `\*bold\* \[x]`},
		{"цена 1*2 за `кг", "цена 1\\*2 за \\`кг"},
	}
	for _, tc := range cases {
		if got := EscapeMD(tc.in); got != tc.want {
			t.Errorf("EscapeMD(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEscapeMDV2(t *testing.T) {
	if got := EscapeMDV2("a.b-c!"); got != `a\.b\-c\!` {
		t.Errorf("EscapeMDV2 = %q", got)
	}
}
