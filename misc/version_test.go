package misc

import "testing"

func TestGetAppName(t *testing.T) {
	if got := GetAppName(); got != appName {
		t.Errorf("GetAppName() under test = %q, want %q", got, appName)
	}
}

func TestGetGitHash(t *testing.T) {
	if GetGitHash() == "" {
		t.Error("GetGitHash() must never be empty")
	}
	if GetVersion() == "" {
		t.Error("GetVersion() must never be empty")
	}
}
