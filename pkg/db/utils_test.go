package db

import "testing"

func TestGetTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := GetTotalPages(tt.total, tt.size); got != tt.want {
			t.Errorf("GetTotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestDBConfigFromYamlObj(t *testing.T) {
	t.Run("with credentials", func(t *testing.T) {
		c := DBConfigFromYamlObj(DBConfigYaml{
			ConnectionStr:    "db.example.com:27017",
			Username:         "cms",
			Password:         "pw",
			ConnectionPrefix: "+srv",
			DBNamePrefix:     "dev_",
			DBName:           "accounts",
			Timeout:          5,
		})
		if c.URI != "mongodb+srv://cms:pw@db.example.com:27017" {
			t.Errorf("unexpected uri: %s", c.URI)
		}
		if c.DBName != "dev_accounts" || c.Timeout != 5 {
			t.Errorf("unexpected config: %+v", c)
		}
	})

	t.Run("defaults without credentials", func(t *testing.T) {
		c := DBConfigFromYamlObj(DBConfigYaml{ConnectionStr: "localhost:27017", DBName: "content"})
		if c.URI != "mongodb://localhost:27017" {
			t.Errorf("unexpected uri: %s", c.URI)
		}
		if c.Timeout != DEFAULT_TIMEOUT || c.IdleConnTimeout != DEFAULT_IDLE_CONN_TIMEOUT || c.MaxPoolSize != DEFAULT_MAX_POOL_SIZE {
			t.Errorf("unexpected defaults: %+v", c)
		}
	})
}

func TestPrepPaginationInfos(t *testing.T) {
	p := PrepPaginationInfos(25, 2, 10)
	if p.TotalCount != 25 || p.CurrentPage != 2 || p.TotalPages != 3 || p.PageSize != 10 {
		t.Errorf("unexpected pagination: %+v", p)
	}
}
