//go:build integration

package sqlstore_test

import "github.com/Chesten223/SoRight3/internal/platform/postgres"

func init() {
	testDriver = postgres.DriverName
}
