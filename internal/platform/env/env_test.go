package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestString_Default(t *testing.T) {
	got := String("ENV_STRING_DOES_NOT_EXIST", "fallback")
	if got != "fallback" {
		t.Fatalf("String()=%q, want fallback", got)
	}
}

func TestDuration_Override(t *testing.T) {
	t.Setenv("ENV_DURATION_KEY", "250ms")
	got, err := Duration("ENV_DURATION_KEY", 5*time.Second)
	if err != nil {
		t.Fatalf("Duration() err=%v", err)
	}
	if got != 250*time.Millisecond {
		t.Fatalf("Duration()=%v, want 250ms", got)
	}
}

func TestDuration_Invalid(t *testing.T) {
	t.Setenv("ENV_DURATION_KEY_INVALID", "not-a-duration")
	_, err := Duration("ENV_DURATION_KEY_INVALID", 5*time.Second)
	if err == nil {
		t.Fatalf("Duration() expected error")
	}
}

func TestBool_Override(t *testing.T) {
	t.Setenv("ENV_BOOL_KEY", "false")
	got, err := Bool("ENV_BOOL_KEY", true)
	if err != nil {
		t.Fatalf("Bool() err=%v", err)
	}
	if got != false {
		t.Fatalf("Bool()=%v, want false", got)
	}
}

func TestBool_Invalid(t *testing.T) {
	t.Setenv("ENV_BOOL_KEY_INVALID", "nope")
	_, err := Bool("ENV_BOOL_KEY_INVALID", false)
	if err == nil {
		t.Fatalf("Bool() expected error")
	}
}

func TestInt_Override(t *testing.T) {
	t.Setenv("ENV_INT_KEY", "7")
	got, err := Int("ENV_INT_KEY", 42)
	if err != nil {
		t.Fatalf("Int() err=%v", err)
	}
	if got != 7 {
		t.Fatalf("Int()=%v, want 7", got)
	}
}

func TestInt_Invalid(t *testing.T) {
	t.Setenv("ENV_INT_KEY_INVALID", "nope")
	_, err := Int("ENV_INT_KEY_INVALID", 42)
	if err == nil {
		t.Fatalf("Int() expected error")
	}
}

func TestFields_Default(t *testing.T) {
	got := Fields("ENV_FIELDS_DOES_NOT_EXIST", []string{"openid"})
	if len(got) != 1 || got[0] != "openid" {
		t.Fatalf("Fields()=%v, want [openid]", got)
	}
}

func TestFields_SplitsSpacesAndCommas(t *testing.T) {
	t.Setenv("ENV_FIELDS_KEY", "openid profile,email ,")
	got := Fields("ENV_FIELDS_KEY", nil)
	if len(got) != 3 {
		t.Fatalf("Fields()=%v, want 3 entries", got)
	}
	if got[2] != "email" {
		t.Fatalf("Fields()[2]=%q, want email", got[2])
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Load() err=%v", err)
	}
}

func TestLoad_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("ENV_LOAD_SET=fromfile\nENV_LOAD_NEW=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_LOAD_SET", "fromenv")
	t.Cleanup(func() { _ = os.Unsetenv("ENV_LOAD_NEW") })

	if err := Load(path); err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if got := os.Getenv("ENV_LOAD_SET"); got != "fromenv" {
		t.Fatalf("ENV_LOAD_SET=%q, want fromenv", got)
	}
	if got := os.Getenv("ENV_LOAD_NEW"); got != "fromfile" {
		t.Fatalf("ENV_LOAD_NEW=%q, want fromfile", got)
	}
}
