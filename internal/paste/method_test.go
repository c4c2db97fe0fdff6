package paste

import "testing"

func TestPickMethodExplicit(t *testing.T) {
	cases := []struct {
		setting string
		want    Method
	}{
		{"xdotool", MethodXdotool},
		{"wtype", MethodWtype},
		{"ydotool", MethodYdotool},
		{"wl-copy", MethodWlCopy},
	}

	for _, tc := range cases {
		got, err := PickMethod(tc.setting)
		if err != nil {
			t.Fatalf("PickMethod(%q) failed: %v", tc.setting, err)
		}
		if got != tc.want {
			t.Fatalf("PickMethod(%q) = %q, want %q", tc.setting, got, tc.want)
		}
	}
}

func TestPickMethodNoSessionNoTools(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	if _, err := PickMethod("auto"); err == nil {
		t.Fatalf("expected error with no display session")
	}
}

func TestParseMethodRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, err := ParseMethod("carrier-pigeon"); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}

func TestValidatedCurrentUser(t *testing.T) {
	t.Setenv("USER", "alice_1")
	user, err := validatedCurrentUser()
	if err != nil || user != "alice_1" {
		t.Fatalf("unexpected result: %q, %v", user, err)
	}

	t.Setenv("USER", "bad;user")
	if _, err := validatedCurrentUser(); err == nil {
		t.Fatalf("expected rejection of unsafe username")
	}

	t.Setenv("USER", "")
	if _, err := validatedCurrentUser(); err == nil {
		t.Fatalf("expected error for empty username")
	}
}
