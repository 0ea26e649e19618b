package db

import "testing"

func TestOpenRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Open(); err == nil {
		t.Fatal("expected an error without DATABASE_URL")
	}
}

func TestMigrateRequiresConnection(t *testing.T) {
	if err := Migrate(nil); err == nil {
		t.Fatal("expected an error without a connection")
	}
}
