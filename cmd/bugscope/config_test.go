package main

import "testing"

func TestStoreConfigFromEnv(t *testing.T) {
	t.Setenv("BUGSCOPE_DB_TYPE", "postgresql")
	t.Setenv("BUGSCOPE_DB_HOST", "db.internal")
	t.Setenv("BUGSCOPE_DB_PORT", "5432")
	t.Setenv("BUGSCOPE_DB_USER", "bugscope")
	t.Setenv("BUGSCOPE_DB_PASSWORD", "secret")
	t.Setenv("BUGSCOPE_DB_NAME", "bugs")

	cfg, ok := storeConfigFromEnv()
	if !ok {
		t.Fatal("expected the direct store to be enabled")
	}
	if cfg.DBType != "postgresql" || cfg.Host != "db.internal" || cfg.Port != 5432 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.User != "bugscope" || cfg.Password != "secret" || cfg.Database != "bugs" {
		t.Errorf("unexpected credentials: %+v", cfg)
	}
}

func TestStoreConfigFromEnv_Disabled(t *testing.T) {
	t.Setenv("BUGSCOPE_DB_TYPE", "")

	if _, ok := storeConfigFromEnv(); ok {
		t.Fatal("expected the direct store to stay disabled without BUGSCOPE_DB_TYPE")
	}
}
