package db

import (
	"fmt"
)

const (
	DEFAULT_TIMEOUT           = 30
	DEFAULT_IDLE_CONN_TIMEOUT = 45
	DEFAULT_MAX_POOL_SIZE     = 8
)

// DBConfigFromYamlObj turns the yaml section of a database into the connection config. Username
// and password are optional so that local servers without authentication can be used.
func DBConfigFromYamlObj(yamlObj DBConfigYaml) DBConfig {
	credentials := ""
	if yamlObj.Username != "" {
		credentials = fmt.Sprintf("%s:%s@", yamlObj.Username, yamlObj.Password)
	}
	URI := fmt.Sprintf(`mongodb%s://%s%s`, yamlObj.ConnectionPrefix, credentials, yamlObj.ConnectionStr)

	timeout := yamlObj.Timeout
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}
	idleConnTimeout := yamlObj.IdleConnTimeout
	if idleConnTimeout <= 0 {
		idleConnTimeout = DEFAULT_IDLE_CONN_TIMEOUT
	}
	maxPoolSize := yamlObj.MaxPoolSize
	if maxPoolSize <= 0 {
		maxPoolSize = DEFAULT_MAX_POOL_SIZE
	}

	return DBConfig{
		URI:              URI,
		DBName:           yamlObj.DBNamePrefix + yamlObj.DBName,
		Timeout:          timeout,
		IdleConnTimeout:  idleConnTimeout,
		MaxPoolSize:      uint64(maxPoolSize),
		NoCursorTimeout:  yamlObj.UseNoCursorTimeout,
		RunIndexCreation: yamlObj.RunIndexCreation,
	}
}
