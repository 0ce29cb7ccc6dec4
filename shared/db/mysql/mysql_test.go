package mysql

import (
	"testing"
	"time"
)

func TestDriverConfig(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		wantErr bool
	}{
		{name: "empty dsn", dsn: "", wantErr: true},
		{name: "malformed dsn", dsn: "blog:secret@tcp(localhost:3306", wantErr: true},
		{name: "valid dsn", dsn: "blog:secret@tcp(localhost:3306)/blog"},
		{name: "parseTime already off", dsn: "blog:secret@tcp(localhost:3306)/blog?parseTime=false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewMySQLDB(&MySQLConfig{DSN: tt.dsn}).driverConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("driverConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !cfg.ParseTime {
				t.Error("ParseTime should be forced on")
			}
			if cfg.Loc != time.UTC {
				t.Errorf("Loc = %v, want UTC", cfg.Loc)
			}
			if !cfg.ClientFoundRows {
				t.Error("ClientFoundRows should be forced on")
			}
			if cfg.DBName != "blog" {
				t.Errorf("DBName = %q, want %q", cfg.DBName, "blog")
			}
		})
	}
}

func TestMySQLDB_Dialect(t *testing.T) {
	if got := NewMySQLDB(&MySQLConfig{}).Dialect().Name(); got != "mysql" {
		t.Errorf("Dialect().Name() = %q, want %q", got, "mysql")
	}
}
