package usecases

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"formatted us number", "+1 (555) 123-4567", "15551234567"},
		{"already normalized", "15551234567", "15551234567"},
		{"dashes and spaces", "55-512 34 567", "5551234567"},
		{"suffixed identifier", "5551234567@c.us", "5551234567"},
		{"no digits", "+-() abc", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizePhone(tc.in); got != tc.want {
				t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizePhoneDigitsOnly(t *testing.T) {
	inputs := []string{"+58 412-555.1234", "tel:+1234", "++++55", "abc"}
	for _, in := range inputs {
		out := NormalizePhone(in)
		for _, r := range out {
			if r < '0' || r > '9' {
				t.Fatalf("NormalizePhone(%q) = %q contains non-digit %q", in, out, r)
			}
		}
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{"+1 (555) 123-4567", "5551234567", "", "abc123"}
	for _, in := range inputs {
		once := NormalizePhone(in)
		if twice := NormalizePhone(once); twice != once {
			t.Fatalf("not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestChatID(t *testing.T) {
	if got := ChatID("5551234567"); got != "5551234567@c.us" {
		t.Fatalf("ChatID(bare) = %q", got)
	}
	// Re-suffixing an already suffixed identifier must not double it.
	if got := ChatID("5551234567@c.us"); got != "5551234567@c.us" {
		t.Fatalf("ChatID(suffixed) = %q", got)
	}
	if got := ChatID("+1 (555) 123-4567"); got != "15551234567@c.us" {
		t.Fatalf("ChatID(formatted) = %q", got)
	}
}
