package db

import (
	"testing"

	"github.com/shinyyama/marketplace-inbox/internal/config"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{DBUser: "app", DBPassword: "pw", DBName: "market"}
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{
			name:   "plain host",
			mutate: func(c *config.Config) { c.DBHost = "db.internal" },
			want:   "app:pw@tcp(db.internal:3306)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "explicit port",
			mutate: func(c *config.Config) { c.DBHost = "db.internal"; c.DBPort = "13306" },
			want:   "app:pw@tcp(db.internal:13306)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "tcp prefix kept",
			mutate: func(c *config.Config) { c.DBHost = "tcp(10.0.0.1:3306)" },
			want:   "app:pw@tcp(10.0.0.1:3306)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "socket path",
			mutate: func(c *config.Config) { c.DBHost = "/var/run/mysqld.sock" },
			want:   "app:pw@unix(/var/run/mysqld.sock)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "cloud sql instance",
			mutate: func(c *config.Config) { c.DBHost = "ignored"; c.InstanceConnectionName = "proj:region:inst" },
			want:   "app:pw@unix(/cloudsql/proj:region:inst)/market?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name:   "postgres",
			mutate: func(c *config.Config) { c.DBDriver = "postgres"; c.DBHost = "pg.internal" },
			want:   "host=pg.internal port=5432 user=app password=pw dbname=market sslmode=disable TimeZone=UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if got := BuildDSN(&cfg); got != tt.want {
				t.Fatalf("got=%q want=%q", got, tt.want)
			}
		})
	}
}
