package config

import "testing"

func TestSetConfigGetConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	cfg := Default()
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("GetConfig() did not return the stored configuration")
	}
}

func TestReloadConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	previous := Default()
	SetConfig(previous)

	if _, err := ReloadConfig(writeConfig(t, "scan:\n  concurrency: -3\n")); err == nil {
		t.Fatal("expected reload error")
	}
	if GetConfig() != previous {
		t.Error("failed reload replaced the configuration")
	}

	cfg, err := ReloadConfig(writeConfig(t, "scan:\n  concurrency: 8\n"))
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if GetConfig() != cfg || cfg.Scan.Concurrency != 8 {
		t.Errorf("reloaded configuration not stored: %+v", cfg.Scan)
	}
}
